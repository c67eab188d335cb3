package llvmir

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Snapshot format changes.
const snapshotSchemaVersion uint16 = 1

// Digest keys compiled units in the disk cache.
type Digest [sha256.Size]byte

// HashKey derives a cache digest from an ordered set of key parts (source
// identity, options, engine revision).
func HashKey(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Snapshot is the serialized form of a compiled module: enough for a driver
// to skip re-lowering an unchanged compilation unit.
type Snapshot struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Name   string
	Target string

	// Rendered module text and the generated function names, so a driver
	// can re-link exported shims without recompiling.
	Text  string
	Funcs []string
}

// NewSnapshot captures a module into its serialized form.
func NewSnapshot(m *Module) *Snapshot {
	s := &Snapshot{
		Schema: snapshotSchemaVersion,
		Name:   m.Name,
		Target: m.Target,
		Text:   Print(m),
	}
	for _, f := range m.funcs {
		s.Funcs = append(s.Funcs, f.Name)
	}
	return s
}

// DiskCache stores compiled-unit snapshots keyed by Digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache initializes a disk cache rooted at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a snapshot to the disk cache atomically.
func (c *DiskCache) Put(key Digest, snap *Snapshot) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads a snapshot from the disk cache. A missing entry or a schema
// mismatch is a miss, not an error.
func (c *DiskCache) Get(key Digest) (*Snapshot, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(fmt.Errorf("llvmir: close cache file: %w", closeErr))
		}
	}()
	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, false, err
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, false, nil
	}
	return &snap, true, nil
}
