package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/dbsample/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration shape: required URLs, well-formed
// relation references and sane modifier values. Whether referenced tables
// and columns actually exist is checked later against introspected
// metadata, at graph build time.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.SourceDatabaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "SOURCE_DATABASE_URL",
			Message: "required",
		})
	}
	if c.TargetDatabaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "TARGET_DATABASE_URL",
			Message: "required",
		})
	}

	for i, name := range c.IgnoreTables {
		if !sqlutil.IsValidIdentifier(name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("IGNORE_TABLES[%d]", i),
				Message: fmt.Sprintf("invalid table name %q", name),
			})
		}
	}

	errs = append(errs, validateRelationRefs("IGNORE_RELATIONS", c.IgnoreRelations)...)
	errs = append(errs, validateRelationRefs("EXTEND_RELATIONS", c.ExtendRelations)...)

	for name, mod := range c.QueryModifiers {
		field := fmt.Sprintf("QUERY_MODIFIERS[%s]", name)
		if name != DefaultModifierKey && !sqlutil.IsValidIdentifier(name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "invalid table name",
			})
		}
		if mod.Limit != nil && *mod.Limit < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".limit",
				Message: "must not be negative",
			})
		}
		for i, cond := range mod.Conditions {
			if strings.TrimSpace(cond) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.conditions[%d]", field, i),
					Message: "empty condition",
				})
			}
		}
	}

	if c.Sampling.Workers < 1 {
		errs = append(errs, ValidationError{
			Field:   "sampling.workers",
			Message: "must be at least 1",
		})
	}
	if c.Sampling.BatchSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "sampling.batch_size",
			Message: "must be at least 1",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateRelationRefs(field string, refs []RelationRef) ValidationErrors {
	var errs ValidationErrors
	for i, ref := range refs {
		for side, value := range map[string]string{"pk": ref.PK, "fk": ref.FK} {
			cr, err := sqlutil.ParseColumnRef(value)
			if err != nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d].%s", field, i, side),
					Message: err.Error(),
				})
				continue
			}
			if !sqlutil.IsValidIdentifier(cr.Table) || !sqlutil.IsValidIdentifier(cr.Column) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d].%s", field, i, side),
					Message: fmt.Sprintf("invalid identifier in %q", value),
				})
			}
		}
	}
	return errs
}
