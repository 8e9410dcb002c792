// Package fsadapter is the filesystem primitive every durable component
// (the variable store, the authorization store, the transaction store, the
// reservation store and the smart-charging profile stack) is built on top
// of. It mirrors MicroOcpp's FilesystemAdapter + FilesystemUtils pairing:
// a thin stat/open/remove interface plus JSON load/store helpers layered on
// it, rather than a bespoke persistence format per component.
package fsadapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Adapter is the minimal filesystem surface the core depends on. A single
// production implementation (Local) backs it; tests can swap in an
// in-memory one without touching component logic.
type Adapter interface {
	// Stat returns the size in bytes of the file at path, or an error if it
	// does not exist.
	Stat(path string) (int64, error)
	// Load reads the full contents of the file at path.
	Load(path string) ([]byte, error)
	// Store writes data to the file at path, replacing any existing content.
	Store(path string, data []byte) error
	// Remove deletes the file at path. Removing a file that does not exist
	// is not an error.
	Remove(path string) error
	// List returns the base names of files directly under the adapter's root
	// whose name begins with prefix.
	List(prefix string) ([]string, error)
}

// Local is the production Adapter, rooted at a directory on disk.
type Local struct {
	root string
	mu   sync.Mutex
}

// NewLocal returns a Local adapter rooted at dir. The directory is created
// if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fsadapter: create root %s: %w", dir, err)
	}
	return &Local{root: dir}, nil
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.Clean(string(filepath.Separator)+path))
}

// Stat returns the size of the named file.
func (l *Local) Stat(path string) (int64, error) {
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Load reads the named file in full.
func (l *Local) Load(path string) ([]byte, error) {
	return os.ReadFile(l.resolve(path))
}

// Store atomically replaces the named file's content. Writes go to a
// temporary sibling file first and are renamed into place so a crash
// mid-write never leaves a half-written, unparseable file behind.
func (l *Local) Store(path string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("fsadapter: mkdir for %s: %w", path, err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("fsadapter: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return fmt.Errorf("fsadapter: rename into place %s: %w", path, err)
	}
	return nil
}

// Remove deletes the named file, ignoring a not-exist error.
func (l *Local) Remove(path string) error {
	err := os.Remove(l.resolve(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns file names directly under the root whose name starts with
// prefix.
func (l *Local) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// LoadJSON reads path and unmarshals it into v. It returns (false, nil) if
// the file does not exist or is empty, mirroring FilesystemUtils::loadJson's
// "absent file is not an error" contract.
func LoadJSON(a Adapter, path string, v interface{}) (bool, error) {
	size, err := a.Stat(path)
	if err != nil {
		return false, nil
	}
	if size == 0 {
		return false, nil
	}
	data, err := a.Load(path)
	if err != nil {
		return false, fmt.Errorf("fsadapter: load %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("fsadapter: corrupt json in %s: %w", path, err)
	}
	return true, nil
}

// StoreJSON marshals v and writes it to path.
func StoreJSON(a Adapter, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("fsadapter: marshal for %s: %w", path, err)
	}
	return a.Store(path, data)
}

// RemoveByPrefix removes every file under the adapter's root whose name
// begins with prefix, bounding fan-out with errgroup so a large cache
// eviction sweep doesn't serialize one remove() syscall at a time.
func RemoveByPrefix(a Adapter, prefix string) error {
	names, err := a.List(prefix)
	if err != nil {
		return fmt.Errorf("fsadapter: list %s*: %w", prefix, err)
	}
	var g errgroup.Group
	g.SetLimit(4)
	for _, name := range names {
		name := name
		g.Go(func() error {
			return a.Remove(name)
		})
	}
	return g.Wait()
}
