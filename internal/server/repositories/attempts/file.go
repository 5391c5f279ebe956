package attempts

import (
	"context"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/jsonstore"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const FileName = "attempts.json"

type document map[string]*models.AttemptCounter

func emptyDocument() document { return document{} }

type FileRepository struct {
	doc *jsonstore.Document[document]
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{doc: jsonstore.New(path, emptyDocument)}
}

func (r *FileRepository) Get(ctx context.Context, fingerprint string) (*models.AttemptCounter, error) {
	d, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := d[fingerprint]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *c
	return &out, nil
}

func (r *FileRepository) Put(ctx context.Context, c *models.AttemptCounter) error {
	return r.doc.Update(ctx, func(d *document) error {
		v := *c
		(*d)[c.Fingerprint] = &v
		return nil
	})
}

func (r *FileRepository) Delete(ctx context.Context, fingerprint string) error {
	return r.doc.Update(ctx, func(d *document) error {
		if _, ok := (*d)[fingerprint]; !ok {
			return jsonstore.ErrSkipWrite
		}
		delete(*d, fingerprint)
		return nil
	})
}
