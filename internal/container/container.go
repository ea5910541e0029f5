// Package container is Blueprint's default contracts.ServiceResolver: a
// type-keyed registry of factories plus a singleton cache and a
// context-scoped per-request cache, grounded on
// mwantia-fabric/pkg/container.ServiceContainer's services/singletons map
// shape (registration-by-reflect.Type, singleton map guarded by a mutex,
// factory invoked lazily on first resolution).
package container

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// Factory constructs one instance of a registered service.
type Factory func(ctx context.Context) (any, error)

type registration struct {
	lifetime contracts.Lifetime
	concrete reflect.Type
	factory  Factory
}

// Container is Blueprint's default contracts.ServiceResolver implementation.
type Container struct {
	mu            sync.RWMutex
	registrations map[reflect.Type]registration
	singletons    map[reflect.Type]any
}

// New creates an empty Container.
func New() *Container {
	return &Container{
		registrations: make(map[reflect.Type]registration),
		singletons:    make(map[reflect.Type]any),
	}
}

// Register binds iface (typically an interface type, or a concrete struct
// pointer type) to a factory producing concrete-typed instances, with the
// given lifetime. Registering the same iface twice replaces the earlier
// registration.
func (c *Container) Register(iface reflect.Type, lifetime contracts.Lifetime, concrete reflect.Type, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[iface] = registration{lifetime: lifetime, concrete: concrete, factory: factory}
}

// ForType implements contracts.ServiceResolver.
func (c *Container) ForType(t reflect.Type) (lifetime contracts.Lifetime, count int, concrete reflect.Type) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.registrations[t]
	if !ok {
		return "", 0, nil
	}
	return reg.lifetime, 1, reg.concrete
}

// Resolve implements contracts.ServiceResolver. Singleton instances are
// built at most once and cached for the Container's lifetime. Scoped
// instances are cached on the per-request scope opened by NewScope.
// Transient instances are constructed fresh on every call.
func (c *Container) Resolve(ctx context.Context, t reflect.Type) (any, error) {
	c.mu.RLock()
	reg, ok := c.registrations[t]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("container: no registration for %s", t)
	}

	switch reg.lifetime {
	case contracts.Singleton:
		return c.resolveSingleton(ctx, t, reg)
	case contracts.Scoped:
		return c.resolveScoped(ctx, t, reg)
	default:
		return reg.factory(ctx)
	}
}

func (c *Container) resolveSingleton(ctx context.Context, t reflect.Type, reg registration) (any, error) {
	c.mu.RLock()
	instance, ok := c.singletons[t]
	c.mu.RUnlock()
	if ok {
		return instance, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if instance, ok := c.singletons[t]; ok {
		return instance, nil
	}
	instance, err := reg.factory(ctx)
	if err != nil {
		return nil, err
	}
	c.singletons[t] = instance
	return instance, nil
}

func (c *Container) resolveScoped(ctx context.Context, t reflect.Type, reg registration) (any, error) {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("container: resolving scoped service %s outside a scope", t)
	}

	scope.mu.Lock()
	defer scope.mu.Unlock()
	if instance, ok := scope.instances[t]; ok {
		return instance, nil
	}
	instance, err := reg.factory(ctx)
	if err != nil {
		return nil, err
	}
	scope.instances[t] = instance
	return instance, nil
}

type scopeKey struct{}

type requestScope struct {
	mu        sync.Mutex
	instances map[reflect.Type]any
}

func scopeFrom(ctx context.Context) (*requestScope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*requestScope)
	return s, ok
}

// NewScope implements contracts.ServiceResolver: it opens a fresh per-request
// cache for Scoped registrations. Instances implementing io.Closer are
// closed when dispose runs; the order in which they are closed is not
// defined.
func (c *Container) NewScope(ctx context.Context) (context.Context, func()) {
	scope := &requestScope{instances: make(map[reflect.Type]any)}
	scoped := context.WithValue(ctx, scopeKey{}, scope)
	dispose := func() {
		scope.mu.Lock()
		defer scope.mu.Unlock()
		for _, instance := range scope.instances {
			if closer, ok := instance.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		}
		scope.instances = nil
	}
	return scoped, dispose
}

var _ contracts.ServiceResolver = (*Container)(nil)
