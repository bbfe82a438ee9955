package slot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const ext = ".json"

// Dir is a Backend storing each key as a JSON file in a directory.
//
// Files are human readable and written atomically, they can be edited by
// hand or kept under version control. Changes made by other processes are
// detected by polling.
type Dir struct {
	path     string
	interval time.Duration
}

// NewDir returns a Dir backend rooted at path, creating it if needed.
// interval is the polling period used by Watch.
func NewDir(path string, interval time.Duration) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create storage directory: %w", err)
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Dir{path: path, interval: interval}, nil
}

func (d *Dir) file(key string) string { return filepath.Join(d.path, key+ext) }

func (d *Dir) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes value to a temporary file and renames it over the key file.
func (d *Dir) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(d.path, "."+key+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.file(key))
}

func (d *Dir) Watch(ctx context.Context, fn func(string, []byte)) error {
	last, err := d.snapshot()
	if err != nil {
		return err
	}
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			current, err := d.snapshot()
			if err != nil {
				continue
			}
			for key, value := range current {
				if prev, ok := last[key]; !ok || !bytes.Equal(prev, value) {
					fn(key, value)
				}
			}
			last = current
		}
	}()
	return nil
}

// snapshot reads every key file.
func (d *Dir) snapshot() (map[string][]byte, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	values := make(map[string][]byte, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.path, name))
		if err != nil {
			continue
		}
		values[strings.TrimSuffix(name, ext)] = data
	}
	return values, nil
}

func (d *Dir) Close() error { return nil }
