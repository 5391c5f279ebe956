package repomanager

import (
	"context"
	"path/filepath"

	"github.com/dmitrijs2005/ashdiag/internal/filex"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/diagnostics"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/keys"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/sessions"
)

// FileRepositoryManager keeps one JSON document per entity under a data
// directory.
type FileRepositoryManager struct {
	dir         string
	keys        *keys.FileRepository
	sessions    *sessions.FileRepository
	attempts    *attempts.FileRepository
	diagnostics *diagnostics.FileRepository
}

func NewFileRepositoryManager(dir string) *FileRepositoryManager {
	return &FileRepositoryManager{
		dir:         dir,
		keys:        keys.NewFileRepository(filepath.Join(dir, keys.FileName)),
		sessions:    sessions.NewFileRepository(filepath.Join(dir, sessions.FileName)),
		attempts:    attempts.NewFileRepository(filepath.Join(dir, attempts.FileName)),
		diagnostics: diagnostics.NewFileRepository(filepath.Join(dir, diagnostics.FileName)),
	}
}

// RunMigrations only makes sure the data directory exists; documents are
// created on first write.
func (m *FileRepositoryManager) RunMigrations(ctx context.Context) error {
	_, err := filex.EnsureDir(m.dir)
	return err
}

func (m *FileRepositoryManager) Keys() keys.Repository               { return m.keys }
func (m *FileRepositoryManager) Sessions() sessions.Repository       { return m.sessions }
func (m *FileRepositoryManager) Attempts() attempts.Repository       { return m.attempts }
func (m *FileRepositoryManager) Diagnostics() diagnostics.Repository { return m.diagnostics }
func (m *FileRepositoryManager) Close() error                        { return nil }
