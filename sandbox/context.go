package sandbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Context represents one isolated run: a unique id, an ephemeral working
// directory, and the lifetime timestamps. It is owned exclusively by the
// executor for the duration of a single request. Two concurrent requests
// never share a Context, and no Context outlives its request.
type Context struct {
	ID        string
	Workdir   string
	StartedAt time.Time
	EndedAt   time.Time

	fs FileSystem
}

// NewContext allocates a fresh execution context with an ephemeral working
// directory under root. An empty root falls back to the system temp
// directory.
func NewContext(fs FileSystem, root string) (*Context, error) {
	workdir, err := fs.MkdirTemp(root, "runbox-exec-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workdir: %w", err)
	}

	return &Context{
		ID:        uuid.NewString(),
		Workdir:   workdir,
		StartedAt: time.Now(),
		fs:        fs,
	}, nil
}

// Close records the end of the run and erases the working directory. It
// must be called on every exit path, including timeout and internal error.
func (c *Context) Close() error {
	c.EndedAt = time.Now()
	if err := c.fs.RemoveAll(c.Workdir); err != nil {
		return fmt.Errorf("failed to remove workdir %s: %w", c.Workdir, err)
	}
	return nil
}

// Elapsed returns the wall-clock duration of the run so far, or the final
// duration once the context is closed.
func (c *Context) Elapsed() time.Duration {
	if c.EndedAt.IsZero() {
		return time.Since(c.StartedAt)
	}
	return c.EndedAt.Sub(c.StartedAt)
}
