package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates the change cannot be applied to a populated table
	// without losing or rewriting data.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, errs := range [][]*ValidationError{r.Errors, r.Warnings} {
		for _, e := range errs {
			if e.Breaking {
				return true
			}
		}
	}
	return false
}

// Err returns the errors joined in a single error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema: invalid tables: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString(title + ":\n")
		for _, e := range errs {
			sb.WriteString("  - " + e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if sb.Len() == 0 {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// ValidateOption configures diff validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn bool
	allowDropTable  bool
}

// AllowDropColumn reports dropped columns as warnings instead of errors.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable reports dropped tables as warnings instead of errors.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// ValidateDiff compares the tables compiled from a previous package version
// with the current ones. Changes that need a new packet with data migration
// are reported as breaking.
//
//	result := schema.ValidateDiff(previous, current)
//	if result.HasBreakingChanges() {
//		log.Fatal("breaking changes detected:\n", result)
//	}
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	desiredByName := make(map[string]*Table, len(desired))
	for _, t := range desired {
		desiredByName[t.Name] = t
	}
	for _, c := range current {
		d, ok := desiredByName[c.Name]
		if !ok {
			result.add(cfg.allowDropTable, &ValidationError{
				Table:    c.Name,
				Message:  "table will be dropped",
				Breaking: true,
			})
			continue
		}
		validateTableDiff(c, d, cfg, result)
	}
	return result
}

// add records e as a warning when allowed, otherwise as an error.
func (r *ValidationResult) add(allowed bool, e *ValidationError) {
	if allowed {
		r.Warnings = append(r.Warnings, e)
	} else {
		r.Errors = append(r.Errors, e)
	}
}

func validateTableDiff(current, desired *Table, cfg *validateConfig, result *ValidationResult) {
	for _, c := range current.All() {
		d := desired.Column(c.Name)
		if d == nil {
			result.add(cfg.allowDropColumn, &ValidationError{
				Table:    current.Name,
				Column:   c.Name,
				Message:  "column will be dropped",
				Breaking: true,
			})
			continue
		}
		if c.Type != d.Type {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  c.Name,
				Message: fmt.Sprintf("column type changing from %s to %s", c.Type, d.Type),
			})
		}
		if c.Reference != d.Reference {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    current.Name,
				Column:   c.Name,
				Message:  fmt.Sprintf("column reference changing from %q to %q", c.Reference, d.Reference),
				Breaking: true,
			})
		}
	}
	// Existing rows make the new columns NULL.
	for _, d := range desired.Columns {
		if current.Column(d.Name) == nil {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  d.Name,
				Message: "new column is NULL for existing rows",
			})
		}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	if t.Primary == nil {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary column",
		})
	}
	names := make(map[string]bool)
	for _, c := range t.All() {
		if names[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		names[c.Name] = true
		if c.Type == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "column has no type",
			})
		}
	}
	return result
}

// ValidateSchema validates all tables and checks that every reference
// points at a table of the set.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}
	names := make(map[string]bool)
	for _, t := range tables {
		if names[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		names[t.Name] = true
		result.merge(ValidateTable(t))
	}
	for _, t := range tables {
		for _, c := range t.References() {
			if !names[c.Reference] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  c.Name,
					Message: fmt.Sprintf("reference to non-existent table %q", c.Reference),
				})
			}
		}
	}
	return result
}
