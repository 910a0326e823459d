package quality

import (
	"context"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// CreateRequest is a create payload that knows how to build its model
type CreateRequest[T any] interface {
	ToModel(actor string) (*T, error)
}

// UpdateRequest is an update payload that knows which columns it changes
type UpdateRequest interface {
	Changes() (map[string]any, error)
}

// CrudService is the generic list/get/create/update/delete service shared by
// every entity
type CrudService[T any, C CreateRequest[T], U UpdateRequest] struct {
	repo quality.CrudRepository[T]
	cfg  shared.EntityConfig
}

// NewCrudService creates a CrudService over repo
func NewCrudService[T any, C CreateRequest[T], U UpdateRequest](repo quality.CrudRepository[T], cfg shared.EntityConfig) *CrudService[T, C, U] {
	return &CrudService[T, C, U]{repo: repo, cfg: cfg}
}

// Config returns the entity config
func (s *CrudService[T, C, U]) Config() shared.EntityConfig {
	return s.cfg
}

// List returns one page of records
func (s *CrudService[T, C, U]) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[T], error) {
	filter = s.cfg.NormalizeFilter(filter)
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit)
	return &page, nil
}

// Get returns the record addressed by key
func (s *CrudService[T, C, U]) Get(ctx context.Context, key shared.Key) (*T, error) {
	return s.repo.FindByKey(ctx, key)
}

// Create validates req and inserts the record
func (s *CrudService[T, C, U]) Create(ctx context.Context, req C, actor string) (*T, error) {
	entity, err := req.ToModel(actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Update applies req to the record addressed by key
func (s *CrudService[T, C, U]) Update(ctx context.Context, key shared.Key, req U) (*T, error) {
	changes, err := req.Changes()
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, shared.NewValidationError("No fields to update")
	}
	return s.repo.Update(ctx, key, changes)
}

// Delete removes (or deactivates) the record addressed by key
func (s *CrudService[T, C, U]) Delete(ctx context.Context, key shared.Key) error {
	return s.repo.Delete(ctx, key)
}

// Health checks the entity's table is reachable
func (s *CrudService[T, C, U]) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
