// Package jsonstore persists a whole value as one JSON document on disk.
//
// Every mutation reads the full snapshot, applies a change in memory and
// atomically replaces the file (temp file + rename). A mutex serializes
// writers inside one process; separate processes can still lose updates.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/filex"
)

const filePerm = 0o600

// ErrSkipWrite can be returned from an Update callback to keep the document
// untouched while still reporting success.
var ErrSkipWrite = errors.New("skip write")

// Document is a typed JSON file.
type Document[T any] struct {
	mu    sync.Mutex
	path  string
	empty func() T
}

// New binds a document to path. empty builds the value used when the file
// does not exist yet.
func New[T any](path string, empty func() T) *Document[T] {
	return &Document[T]{path: path, empty: empty}
}

// Path returns the backing file path.
func (d *Document[T]) Path() string { return d.path }

// Read returns the current snapshot.
func (d *Document[T]) Read(ctx context.Context) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return d.load()
}

// Update applies fn to the current snapshot and writes the result. When fn
// fails the file is left unchanged and fn's error is returned as is.
func (d *Document[T]) Update(ctx context.Context, fn func(v *T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	v, err := d.load()
	if err != nil {
		return err
	}

	if err := fn(&v); err != nil {
		if errors.Is(err, ErrSkipWrite) {
			return nil
		}
		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return common.PersistenceErr("encode "+d.path, err)
	}
	if err := filex.WriteFileAtomic(d.path, b, filePerm); err != nil {
		return common.PersistenceErr("write "+d.path, err)
	}
	return nil
}

func (d *Document[T]) load() (T, error) {
	b, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return d.empty(), nil
	}
	if err != nil {
		var zero T
		return zero, common.PersistenceErr("read "+d.path, err)
	}

	v := d.empty()
	if len(b) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, common.PersistenceErr("decode "+d.path, fmt.Errorf("corrupt document: %w", err))
	}
	return v, nil
}
