// Package validate is the runtime used by code generated with ocsfgen.
//
// Generated packages build their validators from the constructors in this
// package once, at package initialization, and then validate decoded JSON
// values (map[string]any, []any, string, float64/json.Number, bool) against
// them:
//
//	err := validate.JSON(objects.AnalyticSchema, data)
//	a, err := validate.Parse[objects.Analytic](objects.AnalyticSchema, data)
//
// Objects are either open (unknown keys are accepted and kept, both in the
// validated value and in the Extra field of the static type) or strict
// (unknown keys are reported). References that
// would form an initialization cycle are emitted as lazy arena lookups, see
// Arena.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is matched by every Issues value returned from this package.
var ErrInvalid = errors.New("validate: invalid value")

// Schema validates a decoded JSON value.
type Schema interface {
	// Kind returns a short description of the expected value, used in messages.
	Kind() string

	check(v any, p path, is *Issues)
}

// Issue describes one validation failure.
type Issue struct {
	// Path is a JSON pointer to the offending value ("" is the root).
	Path string
	// Code is a stable machine-readable identifier of the failure.
	Code string
	// Message is a human-readable description.
	Message string
}

// Issue codes.
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeRequired      = "required"
	CodeUnrecognized  = "unrecognized_key"
	CodeNotAllowed    = "not_allowed"
	CodeOutOfRange    = "out_of_range"
	CodeUnresolved    = "unresolved_reference"
)

// Issues is the error returned when a value does not satisfy a Schema.
type Issues []Issue

// Error implements the error interface.
func (is Issues) Error() string {
	var b strings.Builder
	b.WriteString("validate: ")
	for i, x := range is {
		if i > 0 {
			b.WriteString("; ")
		}
		if x.Path != "" {
			b.WriteString(x.Path)
			b.WriteString(": ")
		}
		b.WriteString(x.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrInvalid.
func (is Issues) Is(target error) bool {
	return target == ErrInvalid
}

func (is *Issues) add(p path, code, format string, args ...any) {
	*is = append(*is, Issue{Path: p.String(), Code: code, Message: fmt.Sprintf(format, args...)})
}

// path is a JSON pointer under construction.
type path []string

func (p path) key(k string) path {
	n := make(path, len(p), len(p)+1)
	copy(n, p)
	return append(n, strings.NewReplacer("~", "~0", "/", "~1").Replace(k))
}

func (p path) index(i int) path {
	return p.key(strconv.Itoa(i))
}

func (p path) String() string {
	if len(p) == 0 {
		return ""
	}
	return "/" + strings.Join(p, "/")
}

// Validate checks v against s. It returns nil or an Issues error.
func Validate(s Schema, v any) error {
	var is Issues
	s.check(v, nil, &is)
	if len(is) == 0 {
		return nil
	}
	return is
}

// JSON decodes data and validates the result against s.
// Numbers are decoded as json.Number so long values keep their precision.
func JSON(s Schema, data []byte) error {
	v, err := decode(data)
	if err != nil {
		return err
	}
	return Validate(s, v)
}

// Parse validates data against s and decodes it into a value of the
// companion static type T. The generated types of open objects keep the
// attributes they do not model in their Extra field and write them back
// when encoded, see DecodeExtra.
func Parse[T any](s Schema, data []byte) (*T, error) {
	if err := JSON(s, data); err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("validate: decode %T: %w", out, err)
	}
	return &out, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("validate: decode json: %w", err)
	}
	return v, nil
}
