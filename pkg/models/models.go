// Package models holds the plain data types shared across Blueprint: the
// operation catalog's descriptors, the runtime request/response shapes, and
// the closed enums that drive the code-generation engine.
package models

import (
	"reflect"
)

// ── Operation Descriptor ─────────────────────────────────────

// SourcePart names where a property's value is read from on the wire.
type SourcePart string

const (
	SourceHeader SourcePart = "header"
	SourceQuery  SourcePart = "query"
	SourceCookie SourcePart = "cookie"
	SourceBody   SourcePart = "body"
	SourceRoute  SourcePart = "route"
)

// ResponseCategory classifies a declared response of an operation.
type ResponseCategory string

const (
	ResponseSuccess     ResponseCategory = "success"
	ResponseClientError ResponseCategory = "client_error"
	ResponseServerError ResponseCategory = "server_error"
	ResponseValidation  ResponseCategory = "validation"
)

// PropertyDescriptor describes one typed property of an operation payload.
type PropertyDescriptor struct {
	Name     string
	Type     reflect.Type
	Nullable bool
	Source   SourcePart
}

// ResponseDescriptor describes one possible response shape of an operation.
type ResponseDescriptor struct {
	StatusCode int
	PayloadType reflect.Type
	Category    ResponseCategory
}

// FeatureKind keys the feature bag. It is intentionally open (a plain
// string) so middleware builders can attach operation-specific
// configuration without widening OperationDescriptor itself.
type FeatureKind string

// FeatureBag carries optional, middleware-specific configuration for one
// operation, keyed by FeatureKind.
type FeatureBag map[FeatureKind]any

// OperationDescriptor is the immutable, read-only-after-build description
// of one API operation. Built once by internal/catalogbuilder at startup.
type OperationDescriptor struct {
	// Name is the stable operation identity, e.g. "CreateWidget".
	Name string

	// PayloadType is the Go type of the operation's request payload.
	PayloadType reflect.Type

	// Properties lists every typed property discovered on PayloadType.
	Properties []PropertyDescriptor

	// Responses lists every declared response shape for this operation.
	Responses []ResponseDescriptor

	// Features carries optional per-operation middleware configuration.
	Features FeatureBag

	// RequiresReturnValue is true when the handler(s) for this operation
	// must produce a result variable, per spec.md §4.4.
	RequiresReturnValue bool

	// Links is the set of route templates bound to this operation, e.g.
	// "/widgets/{id}".
	Links []string
}

// Feature looks up a feature-bag entry, reporting whether it was present.
func (d *OperationDescriptor) Feature(kind FeatureKind) (any, bool) {
	if d.Features == nil {
		return nil, false
	}
	v, ok := d.Features[kind]
	return v, ok
}

// ── Runtime request/response shapes ──────────────────────────

// ErrorKind enumerates the policy table in spec.md §7.
type ErrorKind string

const (
	ErrUnresolvedService    ErrorKind = "unresolved_service"
	ErrMissingHandler       ErrorKind = "missing_handler"
	ErrMissingReturnValue   ErrorKind = "missing_return_value"
	ErrDuplicateInjected    ErrorKind = "duplicate_injected_field"
	ErrPipelineCycle        ErrorKind = "pipeline_cycle"
	ErrCompilationError     ErrorKind = "compilation_error"
	ErrValidationFailed     ErrorKind = "validation_failed"
	ErrUnauthorized         ErrorKind = "unauthorized"
	ErrForbidden            ErrorKind = "forbidden"
	ErrUnhandledException   ErrorKind = "unhandled_exception"
	ErrCancelled            ErrorKind = "cancelled"
)

// OperationResult is the uniform outcome of a dispatched operation.
type OperationResult struct {
	Kind ErrorKind `json:"kind,omitempty"`

	// Ok is true for a successful (non-error) result.
	Ok bool `json:"ok"`

	// Value is the handler's return value, present only when Ok and the
	// operation RequiresReturnValue.
	Value any `json:"value,omitempty"`

	// Errors carries validation failures keyed by property name.
	Errors map[string]string `json:"errors,omitempty"`

	// Message is a human-readable description, set for every non-Ok result.
	Message string `json:"message,omitempty"`
}

// Identity is the authenticated principal attached to a request, mirroring
// the shape a real AuthProvider chain would produce.
type Identity struct {
	Subject string
	Role    string
	Claims  map[string]string
}

// ── Generation-time errors ───────────────────────────────────

// Error is the uniform shape every generation-time failure takes across
// internal/graph, internal/methodbuilder, internal/typebuilder,
// internal/diservice, and internal/compiler, per spec.md §7's error-kind
// table. It is returned, never panicked — pkg/host.Build fails fast with
// the offending operation attached.
type Error struct {
	Kind      ErrorKind
	Operation string
	Message   string
	// Fields carries per-property detail for ErrValidationFailed, keyed by
	// property name — the same shape OperationResult.Errors surfaces.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Operation != "" {
		return string(e.Kind) + " (" + e.Operation + "): " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
