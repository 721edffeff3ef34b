package keygen

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/identity"
	"github.com/cryft-labs/dakota/dakota/keystore"
)

// File names inside a key directory.
const (
	PrivateKeyFile = "privateKey"
	AddressFile    = "address"
	NodeKeyFile    = "key"
	NodePubFile    = "key.pub"
)

var ErrEmptyName = errors.New("keygen: key set name is empty")

// Generator writes key sets to disk. The zero value is usable: crypto/rand,
// a no-op logger and the default keystore iteration count.
type Generator struct {
	Rand       io.Reader
	Logger     *zap.Logger
	Now        func() time.Time
	Iterations int
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// KeystoreOptions enables the optional V3 keystore for an EOA.
type KeystoreOptions struct {
	Enabled  bool
	Password []byte
}

// EOAResult describes one generated externally owned account.
type EOAResult struct {
	Name         string
	Dir          string
	Address      identity.Address
	KeystorePath string // empty when no keystore was requested
}

// NodeKeyResult describes one generated node identity key.
type NodeKeyResult struct {
	Name      string
	Dir       string
	KeyPath   string
	PubPath   string
	PublicKey string
}

// GenerateEOA creates <root>/<name>/{privateKey,address} and, if requested, a keystore file.
func (g *Generator) GenerateEOA(root, name string, ks KeystoreOptions) (EOAResult, error) {
	if name == "" {
		return EOAResult{}, ErrEmptyName
	}
	dir := filepath.Join(root, name)
	if err := mkdirp(dir, DirMode); err != nil {
		return EOAResult{}, fmt.Errorf("keygen: create %s: %w", dir, err)
	}

	acct, err := identity.GenerateAccount(g.Rand)
	if err != nil {
		return EOAResult{}, err
	}

	if err := writeFile(filepath.Join(dir, PrivateKeyFile), acct.PrivateKey.Hex()+"\n", SecretMode); err != nil {
		return EOAResult{}, err
	}
	if err := writeFile(filepath.Join(dir, AddressFile), acct.Address.Hex()+"\n", SecretMode); err != nil {
		return EOAResult{}, err
	}

	res := EOAResult{Name: name, Dir: dir, Address: acct.Address}
	if ks.Enabled {
		opts := []keystore.Option{keystore.WithRand(g.Rand)}
		if g.Iterations > 0 {
			opts = append(opts, keystore.WithIterations(g.Iterations))
		}
		rec, err := keystore.Encrypt(acct.PrivateKey, acct.Address, ks.Password, opts...)
		if err != nil {
			return EOAResult{}, fmt.Errorf("keygen: keystore for %s: %w", name, err)
		}
		data, err := keystore.Marshal(rec)
		if err != nil {
			return EOAResult{}, err
		}
		res.KeystorePath = filepath.Join(dir, keystore.FileName(g.now(), acct.Address.NoPrefix()))
		if err := writeFile(res.KeystorePath, string(data), SecretMode); err != nil {
			return EOAResult{}, err
		}
	}

	g.logger().Info("generated eoa",
		zap.String("name", name),
		zap.String("address", acct.Address.Hex()),
		zap.Bool("keystore", ks.Enabled))
	return res, nil
}

// GenerateNodeKey creates <root>/<name>/key (private, hex) and key.pub (x‖y, hex).
func (g *Generator) GenerateNodeKey(root, name string) (NodeKeyResult, error) {
	if name == "" {
		return NodeKeyResult{}, ErrEmptyName
	}
	dir := filepath.Join(root, name)
	if err := mkdirp(dir, DirMode); err != nil {
		return NodeKeyResult{}, fmt.Errorf("keygen: create %s: %w", dir, err)
	}

	node, err := identity.GenerateNodeKey(g.Rand)
	if err != nil {
		return NodeKeyResult{}, err
	}

	res := NodeKeyResult{
		Name:      name,
		Dir:       dir,
		KeyPath:   filepath.Join(dir, NodeKeyFile),
		PubPath:   filepath.Join(dir, NodePubFile),
		PublicKey: node.PublicKey.Hex(),
	}
	if err := writeFile(res.KeyPath, node.PrivateKey.Hex()+"\n", SecretMode); err != nil {
		return NodeKeyResult{}, err
	}
	if err := writeFile(res.PubPath, res.PublicKey+"\n", PublicMode); err != nil {
		return NodeKeyResult{}, err
	}

	g.logger().Info("generated node key", zap.String("name", name), zap.String("dir", dir))
	return res, nil
}
