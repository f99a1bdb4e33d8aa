package kvstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/hotbundle/hotbundle/internal/platform"
)

// File is a Store persisted as a flat yaml map. Every write replaces the file
// atomically, so a crash leaves either the previous or the new state.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File store backed by path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	return f.Apply(map[string]string{key: value}, nil)
}

func (f *File) Remove(key string) error {
	return f.Apply(nil, []string{key})
}

// Apply writes all changes with a single file replacement.
func (f *File) Apply(set map[string]string, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range set {
		m[k] = v
	}
	for _, k := range remove {
		delete(m, k)
	}
	return f.write(m)
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	m := map[string]string{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", f.path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (f *File) write(m map[string]string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := platform.WriteFileAtomic(f.path, data, platform.FilePermSecure); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
