package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
)

// CrudRepository is a GORM implementation of quality.CrudRepository driven
// by an entity config. Configs are validated before use, so column names
// taken from them are safe to interpolate.
type CrudRepository[T any] struct {
	db  *gorm.DB
	cfg shared.EntityConfig
}

// NewCrudRepository creates a generic repository for cfg's table
func NewCrudRepository[T any](db *gorm.DB, cfg shared.EntityConfig) *CrudRepository[T] {
	return &CrudRepository[T]{db: db, cfg: cfg}
}

// Config returns the entity config the repository was built with
func (r *CrudRepository[T]) Config() shared.EntityConfig {
	return r.cfg
}

// FindAll returns one page of rows matching filter and the total match count
func (r *CrudRepository[T]) FindAll(ctx context.Context, filter shared.Filter) ([]T, int64, error) {
	filter = r.cfg.NormalizeFilter(filter)
	base := r.applyFilter(r.db.WithContext(ctx).Model(new(T)), filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.cfg.Table, err)
	}

	items := make([]T, 0)
	if total == 0 || int64(filter.Offset()) >= total {
		return items, total, nil
	}

	err := base.Session(&gorm.Session{}).
		Order(r.orderClause(filter)).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.cfg.Table, err)
	}
	return items, total, nil
}

// FindByKey returns the row addressed by key or shared.ErrNotFound
func (r *CrudRepository[T]) FindByKey(ctx context.Context, key shared.Key) (*T, error) {
	if err := r.checkKey(key); err != nil {
		return nil, err
	}
	var entity T
	if err := whereKey(r.db.WithContext(ctx), key).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("get %s %s: %w", r.cfg.Table, key, err)
	}
	return &entity, nil
}

// Create inserts entity; generated keys and timestamps are written back
func (r *CrudRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return r.translate("create", err)
	}
	return nil
}

// CreateBatch inserts every row inside a single transaction
func (r *CrudRepository[T]) CreateBatch(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entities {
			if err := tx.Create(&entities[i]).Error; err != nil {
				return r.translate(fmt.Sprintf("create row %d of", i+1), err)
			}
		}
		return nil
	})
}

// Update applies column changes to the row addressed by key and returns the
// updated row
func (r *CrudRepository[T]) Update(ctx context.Context, key shared.Key, changes map[string]any) (*T, error) {
	if err := r.checkKey(key); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		result := whereKey(r.db.WithContext(ctx).Model(new(T)), key).Updates(changes)
		if result.Error != nil {
			return nil, r.translate("update", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, shared.ErrNotFound
		}
	}
	return r.FindByKey(ctx, key)
}

// Delete removes the row addressed by key, or marks it inactive when the
// entity soft-deletes
func (r *CrudRepository[T]) Delete(ctx context.Context, key shared.Key) error {
	if err := r.checkKey(key); err != nil {
		return err
	}
	var result *gorm.DB
	if col := r.cfg.SoftDeleteColumn; col != "" {
		result = whereKey(r.db.WithContext(ctx).Model(new(T)), key).Update(col, false)
	} else {
		result = whereKey(r.db.WithContext(ctx), key).Delete(new(T))
	}
	if result.Error != nil {
		return r.translate("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ping runs a trivial query against the entity's table
func (r *CrudRepository[T]) Ping(ctx context.Context) error {
	var one int
	err := r.db.WithContext(ctx).Raw("SELECT 1 FROM " + r.cfg.Table + " LIMIT 1").Scan(&one).Error
	if err != nil {
		return fmt.Errorf("ping %s: %w", r.cfg.Table, err)
	}
	return nil
}

// DB exposes the handle for entity-specific queries
func (r *CrudRepository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *CrudRepository[T]) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" && len(r.cfg.SearchFields) > 0 {
		pattern := "%" + escapeLike(search) + "%"
		op := likeOperator(r.db)
		conds := make([]string, len(r.cfg.SearchFields))
		args := make([]any, len(r.cfg.SearchFields))
		for i, col := range r.cfg.SearchFields {
			conds[i] = fmt.Sprintf(`%s %s ? ESCAPE '\'`, col, op)
			args[i] = pattern
		}
		// gorm parenthesises OR expressions once other conditions are present
		query = query.Where(strings.Join(conds, " OR "), args...)
	}

	if col := r.cfg.DateField; col != "" {
		if filter.StartDate != nil {
			query = query.Where(col+" >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			if filter.EndDateIsDay {
				query = query.Where(col+" < ?", filter.EndDate.AddDate(0, 0, 1))
			} else {
				query = query.Where(col+" <= ?", *filter.EndDate)
			}
		}
	}

	cols := make([]string, 0, len(filter.Equals))
	for col := range filter.Equals {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		query = query.Where(col+" = ?", equalityValue(filter.Equals[col]))
	}

	if col := r.cfg.SoftDeleteColumn; col != "" && !filter.IncludeInactive {
		if _, explicit := filter.Equals[col]; !explicit {
			query = query.Where(col+" = ?", true)
		}
	}
	return query
}

func (r *CrudRepository[T]) orderClause(filter shared.Filter) string {
	def := r.cfg.DefaultSort
	if def == "" {
		def = r.cfg.Keys[0].Column
	}
	field := ValidateSortField(filter.SortBy, r.cfg.SortFields, def)
	order := ValidateSortOrder(filter.SortOrder, r.cfg.DefaultSortOrder)

	parts := []string{field + " " + order}
	for _, k := range r.cfg.Keys {
		if k.Column != field {
			parts = append(parts, k.Column+" "+order)
		}
	}
	return strings.Join(parts, ", ")
}

func (r *CrudRepository[T]) checkKey(key shared.Key) error {
	if len(key) != len(r.cfg.Keys) {
		return fmt.Errorf("%s: key %q does not match %d key columns", r.cfg.Name, key, len(r.cfg.Keys))
	}
	for i, k := range r.cfg.Keys {
		if key[i].Column != k.Column {
			return fmt.Errorf("%s: unexpected key column %q", r.cfg.Name, key[i].Column)
		}
	}
	return nil
}

// translate maps constraint violations to domain errors and wraps the rest
func (r *CrudRepository[T]) translate(op string, err error) error {
	name := singular(r.cfg.Name)
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, name+" already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewDomainError(shared.ErrInvalidInput.Code, name+" references a record that does not exist")
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s %s: %w", op, r.cfg.Table, err)
}

func whereKey(db *gorm.DB, key shared.Key) *gorm.DB {
	for _, p := range key {
		db = db.Where(clause.Eq{Column: clause.Column{Name: p.Column}, Value: p.Value})
	}
	return db
}

// likeOperator picks the case-insensitive match operator for the dialect.
// SQLite's LIKE is already case-insensitive for ASCII.
func likeOperator(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func equalityValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

func singular(name string) string {
	return strings.TrimSuffix(name, "s")
}

var _ quality.CrudRepository[quality.Defect] = (*CrudRepository[quality.Defect])(nil)
