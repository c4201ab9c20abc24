// Package fscoord coordinates filesystem access with radio restarts. The
// filesystem shares its bus with the NWP, so writes are buffered and no I/O may
// take place while the bus lock is held by a restart.
package fscoord

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultMaxBuffered is the buffered byte count above which WriteFile flushes.
const DefaultMaxBuffered = 4096

type Config struct {
	// MaxBuffered bytes of pending writes before an automatic flush.
	MaxBuffered int
	Logger      *slog.Logger
}

// Coordinator guards an afero.Fs with a single bus lock.
type Coordinator struct {
	mu       sync.Mutex
	fs       afero.Fs
	pending  map[string][]byte
	buffered int
	max      int
	logger   *slog.Logger
}

// New returns a Coordinator writing through to fs.
func New(fs afero.Fs, cfg Config) *Coordinator {
	if cfg.MaxBuffered <= 0 {
		cfg.MaxBuffered = DefaultMaxBuffered
	}
	return &Coordinator{
		fs:      fs,
		pending: make(map[string][]byte),
		max:     cfg.MaxBuffered,
		logger:  cfg.Logger,
	}
}

// Lock acquires the bus. Filesystem calls block until Unlock.
func (c *Coordinator) Lock() { c.mu.Lock() }

// Unlock releases the bus.
func (c *Coordinator) Unlock() { c.mu.Unlock() }

// FlushLocked writes all buffered files. The caller must hold the lock.
func (c *Coordinator) FlushLocked() error {
	if len(c.pending) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.pending))
	for name := range c.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data := c.pending[name]
		if dir := filepath.Dir(name); dir != "." {
			if err := c.fs.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrapf(err, "fscoord: mkdir %s", dir)
			}
		}
		if err := afero.WriteFile(c.fs, name, data, 0o644); err != nil {
			return errors.Wrapf(err, "fscoord: flush %s", name)
		}
		c.buffered -= len(data)
		delete(c.pending, name)
		c.debug("fscoord:flushed", slog.String("name", name), slog.Int("len", len(data)))
	}
	return nil
}

// WriteFile buffers the contents of name. Buffers are flushed when they grow
// past MaxBuffered, on Sync and on every radio restart.
func (c *Coordinator) WriteFile(name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.pending[name]; ok {
		c.buffered -= len(old)
	}
	c.pending[name] = append([]byte(nil), data...)
	c.buffered += len(data)
	if c.buffered > c.max {
		return c.FlushLocked()
	}
	return nil
}

// ReadFile returns the contents of name, including unflushed writes.
func (c *Coordinator) ReadFile(name string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.pending[name]; ok {
		return append([]byte(nil), data...), nil
	}
	data, err := afero.ReadFile(c.fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return data, errors.Wrapf(err, "fscoord: read %s", name)
}

// Sync flushes all buffered writes.
func (c *Coordinator) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.FlushLocked()
}

// Buffered returns the number of bytes waiting to be flushed.
func (c *Coordinator) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffered
}

func (c *Coordinator) debug(msg string, attrs ...slog.Attr) {
	if c.logger != nil {
		c.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}
