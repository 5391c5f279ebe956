package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/jsonstore"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const FileName = "sessions.json"

type document map[string]*models.Session

func emptyDocument() document { return document{} }

type FileRepository struct {
	doc *jsonstore.Document[document]
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{doc: jsonstore.New(path, emptyDocument)}
}

func (r *FileRepository) Create(ctx context.Context, s *models.Session, now time.Time) error {
	return r.doc.Update(ctx, func(d *document) error {
		prune(*d, now)
		if _, ok := (*d)[s.Token]; ok {
			return common.ErrAlreadyExists
		}
		c := *s
		(*d)[s.Token] = &c
		return nil
	})
}

func (r *FileRepository) Get(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	d, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	s, ok := d[token]
	if !ok || s.Expired(now) {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r *FileRepository) Consume(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var out *models.Session
	err := r.doc.Update(ctx, func(d *document) error {
		s, ok := (*d)[token]
		if !ok {
			return common.ErrorNotFound
		}
		delete(*d, token)
		if !s.Expired(now) {
			c := *s
			out = &c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r *FileRepository) Sweep(ctx context.Context, now time.Time) (int, error) {
	var removed int
	err := r.doc.Update(ctx, func(d *document) error {
		removed = prune(*d, now)
		if removed == 0 {
			return jsonstore.ErrSkipWrite
		}
		return nil
	})
	return removed, err
}

func prune(d document, now time.Time) int {
	n := 0
	for token, s := range d {
		if s.Expired(now) {
			delete(d, token)
			n++
		}
	}
	return n
}
