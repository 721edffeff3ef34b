package transfer

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/cryft-labs/dakota/dakota/crypto/keccak"
)

// proofNodeSize is the length of every tree node.
const proofNodeSize = 32

// Errors returned by MerkleTree, VerifyProof and VerifyChunk.
var (
	ErrMerkleEmpty      = errors.New("merkle: no chunks provided")
	ErrMerkleProofFail  = errors.New("merkle: proof verification failed")
	ErrMerkleIndexRange = errors.New("merkle: chunk index out of range")
)

// MerkleTree commits to an ordered list of chunk hashes. The root is sent
// ahead of the data; the receiver checks each chunk and the final root.
type MerkleTree struct {
	leaves [][]byte
	nodes  [][]byte // complete binary tree, root at 0
	count  int
}

// BuildMerkleTree builds a tree over chunk hashes. Leaves are padded to a
// power of two with Keccak-256 of the empty string; parents are
// Keccak-256(left || right).
func BuildMerkleTree(chunkHashes [][]byte) (*MerkleTree, error) {
	if len(chunkHashes) == 0 {
		return nil, ErrMerkleEmpty
	}

	n := 1
	for n < len(chunkHashes) {
		n *= 2
	}
	empty := keccak.Sum256(nil)
	leaves := make([][]byte, n)
	for i := range leaves {
		if i < len(chunkHashes) {
			leaves[i] = chunkHashes[i]
		} else {
			leaves[i] = empty[:]
		}
	}

	nodes := make([][]byte, 2*n-1)
	for i, leaf := range leaves {
		nodes[n-1+i] = leaf
	}
	for i := n - 2; i >= 0; i-- {
		nodes[i] = hashPair(nodes[2*i+1], nodes[2*i+2])
	}

	return &MerkleTree{leaves: leaves, nodes: nodes, count: len(chunkHashes)}, nil
}

func hashPair(left, right []byte) []byte {
	combined := make([]byte, 0, len(left)+len(right))
	combined = append(combined, left...)
	combined = append(combined, right...)
	h := keccak.Sum256(combined)
	return h[:]
}

// Root returns the Merkle root hash.
func (m *MerkleTree) Root() []byte { return m.nodes[0] }

// RootHex returns the Merkle root as a hex string.
func (m *MerkleTree) RootHex() string { return hex.EncodeToString(m.nodes[0]) }

// Len returns the number of real (unpadded) leaves.
func (m *MerkleTree) Len() int { return m.count }

// Proof carries the sibling hashes from a leaf up to the root.
type Proof struct {
	ChunkIndex int
	ChunkHash  []byte
	Siblings   [][]byte
	IsLeft     []bool // IsLeft[i] reports whether Siblings[i] is the left operand
}

// GenerateProof returns the inclusion proof for chunk i.
func (m *MerkleTree) GenerateProof(chunkIndex int) (Proof, error) {
	if chunkIndex < 0 || chunkIndex >= m.count {
		return Proof{}, ErrMerkleIndexRange
	}

	var siblings [][]byte
	var isLeft []bool
	idx := len(m.leaves) - 1 + chunkIndex
	for idx > 0 {
		sibling := idx + 1
		if idx%2 == 0 {
			sibling = idx - 1
		}
		siblings = append(siblings, m.nodes[sibling])
		isLeft = append(isLeft, idx%2 == 0)
		idx = (idx - 1) / 2
	}

	return Proof{
		ChunkIndex: chunkIndex,
		ChunkHash:  m.leaves[chunkIndex],
		Siblings:   siblings,
		IsLeft:     isLeft,
	}, nil
}

// VerifyProof checks proof against the expected root.
func VerifyProof(proof Proof, expectedRoot []byte) error {
	if len(proof.IsLeft) != len(proof.Siblings) {
		return ErrMerkleProofFail
	}
	current := proof.ChunkHash
	for i, sibling := range proof.Siblings {
		if proof.IsLeft[i] {
			current = hashPair(sibling, current)
		} else {
			current = hashPair(current, sibling)
		}
	}
	if !bytes.Equal(current, expectedRoot) {
		return ErrMerkleProofFail
	}
	return nil
}

// VerifyChunk checks that hash is leaf index of a tree over n chunks with the
// given root, using siblings ordered leaf first. The left/right position of
// each sibling follows from the index.
func VerifyChunk(root []byte, n, index int, hash []byte, siblings [][]byte) error {
	if index < 0 || index >= n {
		return ErrMerkleIndexRange
	}
	depth := 0
	for 1<<depth < n {
		depth++
	}
	if len(hash) != proofNodeSize || len(siblings) != depth {
		return ErrMerkleProofFail
	}
	isLeft := make([]bool, depth)
	for j := range isLeft {
		if len(siblings[j]) != proofNodeSize {
			return ErrMerkleProofFail
		}
		isLeft[j] = index>>j&1 == 1
	}
	return VerifyProof(Proof{ChunkIndex: index, ChunkHash: hash, Siblings: siblings, IsLeft: isLeft}, root)
}
