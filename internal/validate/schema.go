// Package validate checks the shape of incoming records before any state is
// touched. Failures are reported as criterio.FieldErrors so callers get the
// full list of violated fields.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hay-kot/criterio"
)

// Record is a decoded JSON object, kept untyped so type violations can be
// reported instead of failing the decode.
type Record = map[string]any

// Rule checks a single field. present is false when the key is missing.
type Rule func(field string, value any, present bool) error

// Field binds a record key to its rules. Rules run in order and stop at the
// first failure, so each field reports at most one error.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema is an ordered list of fields.
type Schema []Field

// Validate returns nil or a criterio.FieldErrors describing every violation.
func (s Schema) Validate(record Record) error {
	var errs criterio.FieldErrorsBuilder
	for _, f := range s {
		value, present := record[f.Name]
		if err := check(f, value, present); err != nil {
			errs = errs.Append(f.Name, err)
		}
	}
	return errs.ToError()
}

// Value validates a standalone value, such as a header or query parameter.
func Value(name string, value any, present bool, rules ...Rule) error {
	if err := check(Field{Name: name, Rules: rules}, value, present); err != nil {
		return criterio.NewFieldErrors(name, err)
	}
	return nil
}

func check(f Field, value any, present bool) error {
	for _, rule := range f.Rules {
		if err := rule(f.Name, value, present); err != nil {
			return err
		}
	}
	return nil
}

// Required rejects missing or null values.
func Required() Rule {
	return func(field string, value any, present bool) error {
		if !present || value == nil {
			return fmt.Errorf("%q is required", field)
		}
		return nil
	}
}

// String requires a non-empty string. Missing values pass; pair with Required.
func String() Rule {
	return func(field string, value any, present bool) error {
		if !present {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%q must be a string", field)
		}
		if s == "" {
			return fmt.Errorf("%q is not allowed to be empty", field)
		}
		return nil
	}
}

// OneOf restricts a string value to the allowed set.
func OneOf(allowed ...string) Rule {
	return func(field string, value any, present bool) error {
		if !present {
			return nil
		}
		s, _ := value.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("%q must be one of [%s]", field, strings.Join(allowed, ", "))
	}
}

// Pattern requires a string value matching re.
func Pattern(re *regexp.Regexp) Rule {
	return func(field string, value any, present bool) error {
		if !present {
			return nil
		}
		s, _ := value.(string)
		if !re.MatchString(s) {
			return fmt.Errorf("%q with value %q fails to match the required pattern: %s", field, s, re.String())
		}
		return nil
	}
}
