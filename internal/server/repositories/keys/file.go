package keys

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/jsonstore"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

// FileName is the document name inside the data directory.
const FileName = "keys.json"

type document struct {
	Keys    []*models.Key `json:"keys"`
	Counter int64         `json:"counter"`
}

func emptyDocument() document { return document{Keys: []*models.Key{}} }

// FileRepository keeps all keys in one JSON document.
type FileRepository struct {
	doc *jsonstore.Document[document]
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{doc: jsonstore.New(path, emptyDocument)}
}

func (r *FileRepository) Create(ctx context.Context, key *models.Key) (*models.Key, error) {
	var created *models.Key
	err := r.doc.Update(ctx, func(d *document) error {
		for _, k := range d.Keys {
			if k.Value == key.Value {
				return common.ErrAlreadyExists
			}
		}
		d.Counter++
		k := cloneKey(key)
		k.ID = d.Counter
		k.Version = 1
		d.Keys = append(d.Keys, k)
		created = cloneKey(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *FileRepository) FindByValue(ctx context.Context, value string) (*models.Key, error) {
	d, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range d.Keys {
		if k.Value == value {
			return cloneKey(k), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *FileRepository) GetByID(ctx context.Context, id int64) (*models.Key, error) {
	d, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	if k := findByID(d.Keys, id); k != nil {
		return cloneKey(k), nil
	}
	return nil, common.ErrorNotFound
}

func (r *FileRepository) RecordAttempt(ctx context.Context, id int64, at time.Time, ceiling int) (*models.Key, error) {
	var updated *models.Key
	err := r.doc.Update(ctx, func(d *document) error {
		k := findByID(d.Keys, id)
		if k == nil {
			return common.ErrorNotFound
		}
		if k.RedemptionAttempts < ceiling {
			k.RedemptionAttempts++
		}
		k.LastAttempt = &at
		k.Version++
		updated = cloneKey(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *FileRepository) MarkUsed(ctx context.Context, id int64, diagnosticID string, at time.Time, metadata map[string]string) error {
	return r.doc.Update(ctx, func(d *document) error {
		k := findByID(d.Keys, id)
		if k == nil {
			return common.ErrorNotFound
		}
		if k.Used {
			return common.ErrKeyAlreadyUsed
		}
		k.Used = true
		k.UsedAt = &at
		k.DiagnosticID = &diagnosticID
		if len(metadata) > 0 && k.ClientMetadata == nil {
			k.ClientMetadata = make(map[string]string, len(metadata))
		}
		for name, v := range metadata {
			k.ClientMetadata[name] = v
		}
		k.Version++
		return nil
	})
}

func (r *FileRepository) List(ctx context.Context, filter models.KeyFilter) ([]*models.Key, error) {
	d, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Key, 0, len(d.Keys))
	for _, k := range d.Keys {
		if filter.Match(k) {
			out = append(out, cloneKey(k))
		}
	}
	return out, nil
}

func findByID(keys []*models.Key, id int64) *models.Key {
	for _, k := range keys {
		if k.ID == id {
			return k
		}
	}
	return nil
}

func cloneKey(k *models.Key) *models.Key {
	c := *k
	if k.ClientMetadata != nil {
		c.ClientMetadata = make(map[string]string, len(k.ClientMetadata))
		for mk, mv := range k.ClientMetadata {
			c.ClientMetadata[mk] = mv
		}
	}
	return &c
}
