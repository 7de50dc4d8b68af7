package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a malformed entity definition.
	ErrInvalidSchema = errors.New("ocsf: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("ocsf: invalid configuration")
	// ErrInvalidReference indicates an attribute referencing an unknown entity.
	ErrInvalidReference = errors.New("ocsf: invalid reference")
	// ErrUnbreakableCycle indicates a reference cycle without a deferrable edge.
	ErrUnbreakableCycle = errors.New("ocsf: unbreakable reference cycle")
	// ErrGenerationFailed indicates a code emission failure.
	ErrGenerationFailed = errors.New("ocsf: code generation failed")
)

// SchemaError reports a malformed entity: a missing or cyclic "extends"
// ancestor, or an attribute that cannot be resolved.
type SchemaError struct {
	Entity    string // Native entity name
	Attribute string // Attribute name (if applicable)
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("ocsf: schema error")
	if e.Entity != "" {
		b.WriteString(" in ")
		b.WriteString(e.Entity)
	}
	if e.Attribute != "" {
		b.WriteString(" attribute ")
		b.WriteString(e.Attribute)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(entity, attribute, message string, cause error) *SchemaError {
	return &SchemaError{
		Entity:    entity,
		Attribute: attribute,
		Message:   message,
		Cause:     cause,
	}
}

// ConfigError represents an invalid generation option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("ocsf: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("ocsf: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// EdgeError reports an attribute whose object type names an entity that does
// not exist in the same version.
type EdgeError struct {
	From      string
	To        string
	Attribute string
	Message   string
}

// Error implements the error interface.
func (e *EdgeError) Error() string {
	var b strings.Builder
	b.WriteString("ocsf: reference error")
	if e.Attribute != "" {
		b.WriteString(" on attribute ")
		b.WriteString(e.Attribute)
	}
	if e.From != "" && e.To != "" {
		fmt.Fprintf(&b, " (%s -> %s)", e.From, e.To)
	} else if e.From != "" {
		b.WriteString(" from ")
		b.WriteString(e.From)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for EdgeError.
func (e *EdgeError) Is(target error) bool {
	return target == ErrInvalidReference
}

// NewEdgeError creates a new EdgeError.
func NewEdgeError(from, to, attribute, message string) *EdgeError {
	return &EdgeError{
		From:      from,
		To:        to,
		Attribute: attribute,
		Message:   message,
	}
}

// CycleError reports a reference cycle that cannot be broken because none
// of its edges may be deferred, or a graph that still has a cycle after
// breaking.
type CycleError struct {
	// Cycle lists the entities of the cycle in traversal order.
	Cycle   []string
	Message string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString("ocsf: cycle error")
	if len(e.Cycle) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Cycle, " -> "))
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for CycleError.
func (e *CycleError) Is(target error) bool {
	return target == ErrUnbreakableCycle
}

// NewCycleError creates a new CycleError.
func NewCycleError(cycle []string, message string) *CycleError {
	return &CycleError{Cycle: cycle, Message: message}
}

// GenerationError represents a failure while rendering or writing files.
type GenerationError struct {
	Phase   string // "objects", "events", "enums", "barrel", "write", etc.
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("ocsf: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsEdgeError reports whether the error is an EdgeError.
func IsEdgeError(err error) bool {
	var edgeErr *EdgeError
	return errors.As(err, &edgeErr)
}

// IsCycleError reports whether the error is a CycleError.
func IsCycleError(err error) bool {
	var cycleErr *CycleError
	return errors.As(err, &cycleErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
