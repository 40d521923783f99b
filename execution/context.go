package execution

import (
	"bytes"
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/wippyai/ledhost"
)

// Guest is a loaded program as the execution task sees it.
// *engine.Program implements it.
type Guest interface {
	Entry(ctx context.Context) (uint32, error)
	AcceptsInput() bool
	HandleInput(ctx context.Context, n uint32) (uint32, error)
	Memory() ledhost.Memory
	Close(ctx context.Context) error
}

// Context owns one loaded program for the lifetime of one run. It is built
// by the dispatcher, handed to exactly one task, and released by that task.
type Context struct {
	guest   Guest
	program []byte
	digest  [32]byte
}

// NewContext takes ownership of guest and keeps a private copy of the
// program bytes, so the caller's receive buffer may be reused.
func NewContext(program []byte, guest Guest) *Context {
	owned := bytes.Clone(program)
	return &Context{
		guest:   guest,
		program: owned,
		digest:  blake3.Sum256(owned),
	}
}

// Guest returns the loaded program.
func (c *Context) Guest() Guest {
	return c.guest
}

// Size returns the program length in bytes.
func (c *Context) Size() int {
	return len(c.program)
}

// Digest returns the hex BLAKE3 digest of the program bytes.
func (c *Context) Digest() string {
	return hex.EncodeToString(c.digest[:])
}

// ShortDigest returns the first 12 hex digits of Digest, for logs.
func (c *Context) ShortDigest() string {
	return c.Digest()[:12]
}

// Release closes the guest and drops the program bytes. It is safe to call
// more than once.
func (c *Context) Release(ctx context.Context) error {
	if c.guest == nil {
		return nil
	}
	err := c.guest.Close(ctx)
	c.guest = nil
	c.program = nil
	return err
}
