// Package registry implements the Executor Registry & Dispatch — C9 in
// SPEC_FULL.md §4.9. It binds each operation's generated, compiled executor
// type to the reflect.Type of the payload it handles, resolves polymorphic
// dispatch by walking embedded base types when no exact match is
// registered, and opens/disposes a fresh DI scope on every dispatch, the
// same registry-of-drivers shape the control plane's model router uses for
// provider kinds.
package registry

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// binding pairs a constructed executor instance with its bound Handle
// method, resolved once at registration so dispatch never pays reflection
// lookup cost beyond the initial Call.
type binding struct {
	operationType reflect.Type
	instance      any
	handle        reflect.Value
}

// Registry maps operation payload types to compiled executor instances and
// dispatches requests against them.
type Registry struct {
	resolver contracts.ServiceResolver

	mu       sync.RWMutex
	bindings map[reflect.Type]binding
}

// New creates an empty Registry. resolver backs the per-dispatch scope
// opened by ExecuteAsync.
func New(resolver contracts.ServiceResolver) *Registry {
	return &Registry{
		resolver: resolver,
		bindings: make(map[reflect.Type]binding),
	}
}

// Register binds operationType to a constructed executor instance.
// instance must expose a "Handle" method — the shape every generated
// executor's internal/methodbuilder output carries. Registering the same
// operationType twice replaces the earlier binding, the same last-write-wins
// discipline the model router's RegisterDriver uses.
func (r *Registry) Register(operationType reflect.Type, instance any) error {
	method := reflect.ValueOf(instance).MethodByName("Handle")
	if !method.IsValid() {
		return &models.Error{
			Kind:      models.ErrMissingHandler,
			Operation: operationType.String(),
			Message:   fmt.Sprintf("%s has no Handle method", operationType),
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[operationType] = binding{
		operationType: operationType,
		instance:      instance,
		handle:        method,
	}
	return nil
}

// resolve finds the binding for t, preferring an exact match and falling
// back to a recursive search of t's anonymous (embedded) fields — Go's
// closest analogue to dispatching on a base type when only a derived
// operation's exact type was registered.
func (r *Registry) resolve(t reflect.Type) (binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(t)
}

func (r *Registry) resolveLocked(t reflect.Type) (binding, bool) {
	if b, ok := r.bindings[t]; ok {
		return b, true
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return binding{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		if b, ok := r.resolveLocked(f.Type); ok {
			return b, true
		}
	}
	return binding{}, false
}

// ExecuteAsync dispatches one already-built ApiOperationContext: it resolves
// the executor bound to the operation's concrete type, opens a fresh DI
// scope for the duration of the call and disposes it on every exit path,
// invokes Handle by reflection (return types vary per operation, so this is
// the one place runtime reflection is the right tool rather than a
// generation-time shortcut), and folds any returned error into the uniform
// OperationResult shape.
func (r *Registry) ExecuteAsync(ctx context.Context, opCtx *contracts.ApiOperationContext) (*models.OperationResult, error) {
	t := reflect.TypeOf(opCtx.Operation)
	b, ok := r.resolve(t)
	if !ok {
		err := &models.Error{
			Kind:      models.ErrMissingHandler,
			Operation: t.String(),
			Message:   fmt.Sprintf("no executor registered for %s", t),
		}
		return toOperationResult(err), nil
	}

	scope, dispose := r.resolver.NewScope(ctx)
	defer dispose()

	out := b.handle.Call([]reflect.Value{reflect.ValueOf(scope), reflect.ValueOf(opCtx.Operation)})

	errVal := out[len(out)-1]
	if !errVal.IsNil() {
		err, _ := errVal.Interface().(error)
		return toOperationResult(err), nil
	}

	result := &models.OperationResult{Ok: true}
	if len(out) > 1 {
		result.Value = out[0].Interface()
	}
	return result, nil
}

// ExecuteWithNewScopeAsync builds a fresh ApiOperationContext (uuid-backed
// RequestID, current time) for operation and dispatches it, honoring
// cancellation from either ctx or the caller-supplied cancel channel.
func (r *Registry) ExecuteWithNewScopeAsync(ctx context.Context, operation any, cancel <-chan struct{}) (*models.OperationResult, error) {
	opCtx := &contracts.ApiOperationContext{
		RequestID: uuid.NewString(),
		Operation: operation,
		StartedAt: time.Now(),
	}

	done := make(chan struct{})
	var (
		result *models.OperationResult
		err    error
	)
	go func() {
		result, err = r.ExecuteAsync(ctx, opCtx)
		close(done)
	}()

	select {
	case <-done:
		return result, err
	case <-cancel:
		return nil, &models.Error{
			Kind:      models.ErrCancelled,
			Operation: opCtx.RequestID,
			Message:   "operation cancelled",
		}
	case <-ctx.Done():
		return nil, &models.Error{
			Kind:      models.ErrCancelled,
			Operation: opCtx.RequestID,
			Message:   ctx.Err().Error(),
		}
	}
}

// toOperationResult folds a dispatch error into the uniform outcome shape:
// a *models.Error carries its Kind/Fields straight through, anything else
// is an unhandled exception.
func toOperationResult(err error) *models.OperationResult {
	if be, ok := err.(*models.Error); ok {
		return &models.OperationResult{
			Kind:    be.Kind,
			Ok:      false,
			Errors:  be.Fields,
			Message: be.Message,
		}
	}
	return &models.OperationResult{
		Kind:    models.ErrUnhandledException,
		Ok:      false,
		Message: err.Error(),
	}
}
