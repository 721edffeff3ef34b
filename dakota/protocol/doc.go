// Package protocol defines the frames exchanged when a key bundle is sent
// to another machine.
//
// A transfer is one stream:
//
//	sender   -> OFFER {version, name, size, chunks, root}
//	sender   -> DATA  (an encoded transfer.Batch), repeated
//	receiver -> ACK   {root, path}  or  CLOSE {reason}
package protocol
