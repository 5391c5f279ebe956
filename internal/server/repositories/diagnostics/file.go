package diagnostics

import (
	"context"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/jsonstore"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const FileName = "diagnostics.json"

type document struct {
	Diagnostics []*models.Diagnostic `json:"diagnostics"`
	Counter     int64                `json:"counter"`
}

func emptyDocument() document { return document{Diagnostics: []*models.Diagnostic{}} }

type FileRepository struct {
	doc *jsonstore.Document[document]
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{doc: jsonstore.New(path, emptyDocument)}
}

func (r *FileRepository) Append(ctx context.Context, d *models.Diagnostic) (*models.Diagnostic, error) {
	var stored models.Diagnostic
	err := r.doc.Update(ctx, func(doc *document) error {
		for _, existing := range doc.Diagnostics {
			if existing.ID == d.ID {
				return common.ErrAlreadyExists
			}
		}
		doc.Counter++
		stored = *d
		stored.NumericID = doc.Counter
		rec := stored
		doc.Diagnostics = append(doc.Diagnostics, &rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *FileRepository) All(ctx context.Context) ([]*models.Diagnostic, error) {
	doc, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Diagnostics, nil
}
