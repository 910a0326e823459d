package csvimport

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/qcms/backend/internal/domain/shared"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeBool    FieldType = "bool"
)

// FieldRule describes the checks applied to one column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	OneOf     []string
	Unique    bool
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a string rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the column as mandatory
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int expects an integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal expects a decimal number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date expects a date or timestamp
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// Bool expects a boolean
func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder {
	b.rule.Type = TypeBool
	return b
}

// Unique rejects values repeated within the file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// MaxLength caps the value length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// OneOf restricts the value to the given set (compared case-insensitively)
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// RequiredColumns lists the columns of rules marked required
func RequiredColumns(rules []FieldRule) []string {
	var cols []string
	for _, r := range rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// Validator applies rules row by row
type Validator struct {
	rules  []FieldRule
	seen   map[string]map[string]int
	errors *ErrorCollection
}

// NewValidator creates a validator keeping up to maxErrors errors
func NewValidator(rules []FieldRule, maxErrors int) *Validator {
	return &Validator{
		rules:  rules,
		seen:   make(map[string]map[string]int),
		errors: NewErrorCollection(maxErrors),
	}
}

// Errors returns the collected errors
func (v *Validator) Errors() *ErrorCollection {
	return v.errors
}

// AddRowError records a rule violation found outside the column rules
func (v *Validator) AddRowError(row int, column, message string) {
	v.errors.Add(RowError{Row: row, Column: column, Code: ErrCodeRule, Message: message})
}

// ValidateRow checks every rule against row and reports whether it passed
func (v *Validator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: ErrCodeRequired,
					Message: fmt.Sprintf("field '%s' is required", rule.Column)})
				ok = false
			}
			continue
		}

		if err := checkType(value, rule.Type); err != nil {
			v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: ErrCodeInvalidType,
				Message: "expected " + string(rule.Type), Value: value})
			ok = false
			continue
		}
		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: ErrCodeTooLong,
				Message: fmt.Sprintf("length must be at most %d", rule.MaxLength)})
			ok = false
		}
		if len(rule.OneOf) > 0 && !slices.Contains(rule.OneOf, strings.ToLower(value)) {
			v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: ErrCodeInvalidEnum,
				Message: "must be one of: " + strings.Join(rule.OneOf, ", "), Value: value})
			ok = false
		}
		if rule.Unique {
			if v.seen[rule.Column] == nil {
				v.seen[rule.Column] = make(map[string]int)
			}
			if first, dup := v.seen[rule.Column][value]; dup {
				v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: ErrCodeDuplicate,
					Message: fmt.Sprintf("duplicate value (first seen in row %d)", first), Value: value})
				ok = false
			} else {
				v.seen[rule.Column][value] = row.Line
			}
		}
	}
	return ok
}

func checkType(value string, t FieldType) error {
	var err error
	switch t {
	case TypeInt:
		_, err = strconv.Atoi(value)
	case TypeDecimal:
		_, err = decimal.NewFromString(value)
	case TypeDate:
		_, err = ParseDate(value)
	case TypeBool:
		_, err = ParseBool(value)
	}
	return err
}

// ParseDate parses a date or timestamp cell
func ParseDate(value string) (time.Time, error) {
	t, _, err := shared.ParseTime(value)
	return t, err
}

// ParseBool accepts true/false, 1/0, yes/no and y/n
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", value)
}
