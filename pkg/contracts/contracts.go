// Package contracts defines the external collaborator interfaces named in
// spec.md §1 and §6: the router adapter, the APM/telemetry sink, OpenAPI
// schema emission, background-task scheduling, validation attribute
// semantics, response formatting, the DI service resolver, the in-process
// compiler, and the error logger.
//
// Blueprint's core (internal/*) depends only on these interfaces, never on
// a concrete router, tracer, or validator — swapping any of them is a
// one-line change in host wiring (pkg/host), the same boundary the teacher
// draws between its OSS and enterprise implementations.
package contracts

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"github.com/blueprintapi/blueprint/pkg/models"
)

// ── Router adapter ───────────────────────────────────────────

// RouterAdapter mounts a handler at a path pattern. Named out-of-scope by
// spec.md §1 ("the HTTP router adapter... treated as external collaborators
// with named interfaces only") — the core never imports a router package,
// only this interface.
type RouterAdapter interface {
	// Mount registers handler for method+pattern (e.g. "GET", "/widgets/{id}").
	Mount(method, pattern string, handler http.HandlerFunc)
}

// ── Telemetry sink ───────────────────────────────────────────

// TelemetrySink receives one completed-operation observation. Named
// out-of-scope by spec.md §1; the PostExecute built-in contributor drives
// this interface but ships no concrete APM backend.
type TelemetrySink interface {
	Observe(ctx context.Context, operation string, durationMs int64, kind models.ErrorKind)
}

// ── OpenAPI schema emission ──────────────────────────────────

// SchemaEmitter renders an operation descriptor to an external schema
// format (e.g. OpenAPI). Named out-of-scope by spec.md §1.
type SchemaEmitter interface {
	Emit(descriptor *models.OperationDescriptor) ([]byte, error)
}

// ── Background task scheduling ───────────────────────────────

// TaskScheduler decides *when* and *how often* a background task runs
// (cron expression, concurrency limit, priority). Named out-of-scope by
// spec.md §1 — internal/taskretry implements only the retry *mechanism*,
// never the scheduling policy.
type TaskScheduler interface {
	Schedule(ctx context.Context, taskName string, run func(context.Context) error) error
}

// ── Authentication ────────────────────────────────────────────

// AuthProvider is one link in the Authentication stage's provider chain,
// the out-of-scope collaborator behind internal/pipeline's ordered-walk
// composition (mirrors the teacher's internal/auth.ProviderChain
// contract): (identity, nil) authenticates, (nil, nil) defers to the next
// provider, (nil, err) fails the whole chain.
type AuthProvider interface {
	Authenticate(ctx context.Context) (*models.Identity, error)
}

// ── Validation ────────────────────────────────────────────────

// ValidationAttribute is one declared per-property validation rule. Named
// out-of-scope by spec.md §1 ("validation attributes... the framework
// treats as an external collaborator") — the Validation stage invokes this
// interface without knowing which concrete rule it is.
type ValidationAttribute interface {
	// Name identifies the rule for error messages, e.g. "required".
	Name() string

	// Validate reports whether value satisfies the rule, and an error
	// message to surface under the property's key when it does not.
	Validate(value any) (ok bool, message string)
}

// ── Response formatting ──────────────────────────────────────

// ResponseFormatter renders an OperationResult to wire bytes. Named
// out-of-scope by spec.md §1 ("JSON formatting").
type ResponseFormatter interface {
	Format(w http.ResponseWriter, result *models.OperationResult) error
}

// ── DI service resolver ──────────────────────────────────────

// Lifetime is the service lifetime recognized by ServiceResolver, per
// spec.md §6.
type Lifetime string

const (
	Singleton Lifetime = "singleton"
	Scoped    Lifetime = "scoped"
	Transient Lifetime = "transient"
)

// ServiceResolver is the DI container boundary C6 (internal/diservice)
// queries to decide whether a requested service should be hoisted to an
// injected field or fetched per-call from the scope.
type ServiceResolver interface {
	// ForType reports how many implementations are registered for t, the
	// lifetime of the (first, if ambiguous) registration, and its concrete
	// type. count == 0 means unresolved.
	ForType(t reflect.Type) (lifetime Lifetime, count int, concrete reflect.Type)

	// Resolve fetches (or constructs) an instance of t from the current
	// scope at runtime. Called by generated per-call resolution frames and
	// never by C6 itself (C6 only decides whether to call it).
	Resolve(ctx context.Context, t reflect.Type) (any, error)

	// NewScope opens a fresh per-request scope. The returned function
	// disposes it; callers must invoke it on every exit path.
	NewScope(ctx context.Context) (scope context.Context, dispose func())
}

// ── Compiler ──────────────────────────────────────────────────

// OptimizationLevel mirrors spec.md §6's OptimizationLevel configuration.
type OptimizationLevel string

const (
	Debug   OptimizationLevel = "debug"
	Release OptimizationLevel = "release"
)

// CompileStrategy selects how the Assembly Emitter turns generated source
// into runnable code, per spec.md §4.8 (expanded in SPEC_FULL.md §4.8).
type CompileStrategy string

const (
	InMemory CompileStrategy = "in_memory"
	ToDisk   CompileStrategy = "to_disk"
)

// SourceFile is one generated, fully-rendered source file.
type SourceFile struct {
	// Path is "<namespace-with-slashes>/<TypeName>.go", per spec.md §6.
	Path string
	// Namespace is the Go package import path this file belongs to.
	Namespace string
	// TypeName is the exported generated type declared in this file.
	TypeName string
	// Source is the full rendered Go source.
	Source string
}

// Diagnostic is one compiler error or warning.
type Diagnostic struct {
	File    string
	Line    int
	Message string
	Fatal   bool
}

// CompiledType is a runtime handle bound to a generated type by
// (Namespace, TypeName).
type CompiledType struct {
	Namespace string
	TypeName  string
	// New constructs an instance of the generated executor, given its
	// resolved injected-field values in declaration order.
	New func(fields ...any) (any, error)
	// GoType is the reflect.Type of the bound concrete type. Dispatch in
	// internal/registry does not read it.
	GoType reflect.Type
}

// Compiler accepts a closed set of generated source files plus the
// assembly references they require and returns compiled types or
// diagnostics, per spec.md §6.
type Compiler interface {
	Compile(ctx context.Context, assemblyName string, files []SourceFile, optimization OptimizationLevel, strategy CompileStrategy) ([]CompiledType, []Diagnostic, error)
}

// ── Error logging ─────────────────────────────────────────────

// ErrorLogger records a runtime error with structured metadata, the
// boundary internal/taskretry and pkg/host's HTTP handler call into. The
// generated exception-handling frame does not call it.
// Named out-of-scope as a concrete backend by spec.md §1; Blueprint itself
// logs through zerolog ambiently (see pkg/host), but handler/operation
// errors flow through this narrower interface so a host can route them
// to Sentry, Honeycomb, etc. without the core depending on any of those.
type ErrorLogger interface {
	LogError(ctx context.Context, err error, metadata map[string]any)
}

// ── Dispatcher ────────────────────────────────────────────────

// Dispatcher is the out-of-process-facing surface of internal/registry,
// per spec.md §6.
type Dispatcher interface {
	ExecuteAsync(ctx context.Context, opCtx *ApiOperationContext) (*models.OperationResult, error)
	ExecuteWithNewScopeAsync(ctx context.Context, operation any, cancel <-chan struct{}) (*models.OperationResult, error)
}

// ApiOperationContext carries the per-request state threaded through one
// dispatched operation.
type ApiOperationContext struct {
	RequestID string
	Operation any
	Identity  *models.Identity
	StartedAt time.Time
}

// Handler is implemented by end-user operation handlers. T is the
// operation payload type (or a base type thereof for polymorphic
// operations). Handlers themselves are explicitly out of scope per
// spec.md §1 ("the end-user operation handlers"); this interface is the
// only contract the Execution stage needs from them.
type Handler[T any] interface {
	Handle(ctx context.Context, payload T) (any, error)
}
