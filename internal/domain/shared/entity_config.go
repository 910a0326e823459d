package shared

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// PatternType determines an entity's primary-key shape
type PatternType string

const (
	// PatternSerialID is a single auto-incrementing integer key
	PatternSerialID PatternType = "SERIAL_ID"
	// PatternVarcharCode is a single natural varchar code key
	PatternVarcharCode PatternType = "VARCHAR_CODE"
	// PatternSpecial is a composite key over two or more columns
	PatternSpecial PatternType = "SPECIAL"
)

// KeyColumn is one column of an entity's primary key
type KeyColumn struct {
	Column  string
	Param   string // route parameter, defaults to Column
	Integer bool
}

// ParamName returns the route parameter bound to this key column
func (k KeyColumn) ParamName() string {
	if k.Param != "" {
		return k.Param
	}
	return k.Column
}

// EntityConfig describes how a table is exposed through the generic CRUD layer.
// Column names are interpolated into SQL and must pass Validate.
type EntityConfig struct {
	Name             string
	Pattern          PatternType
	APIPath          string
	Table            string
	Keys             []KeyColumn
	SearchFields     []string
	DateField        string
	EqualityFields   []string
	SortFields       []string
	DefaultSort      string
	DefaultSortOrder string
	DefaultPageSize  int
	MaxPageSize      int
	// SoftDeleteColumn, when set, turns DELETE into "SET <col> = false".
	SoftDeleteColumn string
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// Validate checks the config is usable for query building and routing
func (c EntityConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if !strings.HasPrefix(c.APIPath, "/") || strings.ContainsAny(c.APIPath, ":*") || len(c.APIPath) < 2 {
		return fmt.Errorf("%s: invalid api path %q", c.Name, c.APIPath)
	}
	if !identifierPattern.MatchString(c.Table) {
		return fmt.Errorf("%s: invalid table name %q", c.Name, c.Table)
	}

	switch c.Pattern {
	case PatternSerialID:
		if len(c.Keys) != 1 || !c.Keys[0].Integer {
			return fmt.Errorf("%s: %s requires exactly one integer key", c.Name, c.Pattern)
		}
	case PatternVarcharCode:
		if len(c.Keys) != 1 || c.Keys[0].Integer {
			return fmt.Errorf("%s: %s requires exactly one code key", c.Name, c.Pattern)
		}
	case PatternSpecial:
		if len(c.Keys) < 2 {
			return fmt.Errorf("%s: %s requires a composite key", c.Name, c.Pattern)
		}
	default:
		return fmt.Errorf("%s: unknown pattern type %q", c.Name, c.Pattern)
	}

	columns := []string{c.DateField, c.SoftDeleteColumn}
	for _, k := range c.Keys {
		columns = append(columns, k.Column)
	}
	columns = append(columns, c.SearchFields...)
	columns = append(columns, c.EqualityFields...)
	columns = append(columns, c.SortFields...)
	for _, col := range columns {
		if col != "" && !identifierPattern.MatchString(col) {
			return fmt.Errorf("%s: invalid column name %q", c.Name, col)
		}
	}

	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("%s: default page size must be positive", c.Name)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("%s: max page size %d is below default %d", c.Name, c.MaxPageSize, c.DefaultPageSize)
	}
	if c.DefaultSort != "" && !slices.Contains(c.SortFields, c.DefaultSort) {
		return fmt.Errorf("%s: default sort %q is not a sortable field", c.Name, c.DefaultSort)
	}
	return nil
}

// KeyPath returns the gin route suffix addressing a single record,
// e.g. "/:id" or "/:customer_code/:site_code".
func (c EntityConfig) KeyPath() string {
	var b strings.Builder
	for _, k := range c.Keys {
		b.WriteString("/:")
		b.WriteString(k.ParamName())
	}
	return b.String()
}

// ParseKey builds a Key from route parameters
func (c EntityConfig) ParseKey(param func(name string) string) (Key, error) {
	key := make(Key, 0, len(c.Keys))
	for _, k := range c.Keys {
		name := k.ParamName()
		raw := strings.TrimSpace(param(name))
		if raw == "" {
			return nil, NewValidationError(name+" is required", FieldError{Field: name, Message: "required"})
		}
		if !k.Integer {
			key = append(key, KeyPart{Column: k.Column, Value: raw})
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, NewValidationError("Invalid "+name+": must be a positive integer",
				FieldError{Field: name, Message: "must be a positive integer"})
		}
		key = append(key, KeyPart{Column: k.Column, Value: n})
	}
	return key, nil
}

// NormalizeFilter applies page defaults, clamps the limit to MaxPageSize
// and drops equality filters the entity does not declare.
func (c EntityConfig) NormalizeFilter(f Filter) Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = c.DefaultPageSize
	}
	if f.Limit > c.MaxPageSize {
		f.Limit = c.MaxPageSize
	}
	if len(f.Equals) > 0 {
		kept := make(map[string]string, len(f.Equals))
		for col, v := range f.Equals {
			if slices.Contains(c.EqualityFields, col) {
				kept[col] = v
			}
		}
		f.Equals = kept
	}
	return f
}

// KeyPart is one column/value pair of a primary key
type KeyPart struct {
	Column string
	Value  any
}

// Key addresses a single record
type Key []KeyPart

// String renders the key for logs and messages
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = fmt.Sprintf("%s=%v", p.Column, p.Value)
	}
	return strings.Join(parts, ",")
}

// Conditions returns the key as a column → value map
func (k Key) Conditions() map[string]any {
	m := make(map[string]any, len(k))
	for _, p := range k {
		m[p.Column] = p.Value
	}
	return m
}
