package di

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/sectrean/di-web/internal/errors"
)

// Container is a dependency injection container.
// It is used to resolve services by first resolving their dependencies.
//
// Singleton instances are stored by the Container. Instances of services registered
// with [InScope] are stored by their [Scope], which usually keeps them on the
// context passed to [Container.Resolve].
type Container struct {
	services   map[Key][]service
	resolved   map[service]resolveResult
	closers    []Closer
	resolvedMu sync.RWMutex
	closedMu   sync.RWMutex
	closersMu  sync.Mutex
	closed     bool
}

var _ Resolver = (*Container)(nil)

// NewContainer creates a new [Container] with the provided options.
//
// Available options:
//   - [WithService] registers a service with a value or constructor function.
//   - [WithProvider] registers a [Provider] for a service.
//   - [WithModule] applies a group of options.
//   - [WithDependencyValidation] validates service dependencies.
func NewContainer(opts ...ContainerOption) (*Container, error) {
	c := &Container{
		services: make(map[Key][]service),
		resolved: make(map[service]resolveResult),
	}

	err := c.applyOptions(opts)
	if err != nil {
		return nil, errors.Wrap(err, "di.NewContainer")
	}

	return c, nil
}

// ContainerOption is used to configure a new [Container] when calling [NewContainer].
type ContainerOption interface {
	order() optionOrder
	applyContainer(*Container) error
}

func (c *Container) applyOptions(opts []ContainerOption) error {
	opts = flattenModules(opts)

	// Use stable sort because the registration order of services matters
	slices.SortStableFunc(opts, func(a, b ContainerOption) int {
		return cmp.Compare(a.order(), b.order())
	})

	return applyOptions(opts, func(o ContainerOption) error {
		return o.applyContainer(c)
	})
}

func (c *Container) register(svc service) {
	key := svc.Key()

	if len(svc.Aliases()) == 0 {
		c.services[key] = append(c.services[key], svc)
	} else {
		for _, alias := range svc.Aliases() {
			aliasKey := Key{Type: alias, Tag: key.Tag}
			c.services[aliasKey] = append(c.services[aliasKey], svc)
		}
	}

	// Value services may be closed with the Container
	// We don't need to take locks here because this is only called when creating a new Container
	if vs, ok := svc.(*valueService); ok {
		if closer := vs.CloserFor(vs.val); closer != nil {
			c.closers = append(c.closers, closer)
		}
	}
}

// WithDependencyValidation validates registered services on [Container] creation.
//
// This will check that all dependencies are registered, that there are no dependency cycles,
// and that singletons do not depend on scoped services.
// It will return an error with details if any issues are found.
func WithDependencyValidation() ContainerOption {
	return newContainerOption(orderValidation, func(c *Container) error {
		err := c.validateDependencies()
		if err != nil {
			return errors.Wrap(err, "with dependency validation")
		}

		return nil
	})
}

func (c *Container) validateDependencies() error {
	var errs errors.MultiError
	svcProblems := make(map[service]string)

	// Sort the keys so the errors are reported in a stable order
	keys := make([]Key, 0, len(c.services))
	for key := range c.services {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return cmp.Compare(a.String(), b.String())
	})

	for _, key := range keys {
		for _, svc := range c.services[key] {
			prob := c.validateService(svc, svcProblems, make(resolveVisitor))
			if prob != "" {
				errs = errs.Append(errors.Errorf("service %s: %s", key, prob))
			}
		}
	}

	return errs.Join()
}

func (c *Container) validateService(svc service, svcProblems map[service]string, visitor resolveVisitor) string {
	if prob, ok := svcProblems[svc]; ok {
		return prob
	}

	deps := svc.Dependencies()
	if len(deps) == 0 {
		svcProblems[svc] = ""
		return ""
	}

	if !visitor.Enter(svc) {
		return ErrDependencyCycle.Error()
	}
	defer visitor.Leave(svc)

	var problems []string
	for i, depKey := range deps {
		if depKey.Type == typeContext || depKey.Type == typeResolver {
			continue
		}

		if depKey.Type.Kind() == reflect.Slice {
			if i == len(deps)-1 && svc.IsVariadic() {
				// If the service is variadic, registration is optional
				continue
			}

			// Check that the element type is registered
			depKey.Type = depKey.Type.Elem()
		}

		depSvc := c.lookupService(depKey)
		if depSvc == nil {
			problems = append(problems, fmt.Sprintf("dependency %s: %s", depKey, ErrServiceNotRegistered))
			continue
		}

		if svc.Lifetime() == Singleton && depSvc.Lifetime() == Scoped {
			problems = append(problems, fmt.Sprintf("dependency %s: %s", depKey, errScopedDependency))
			continue
		}

		prob := c.validateService(depSvc, svcProblems, visitor)
		if prob != "" {
			problems = append(problems, fmt.Sprintf("dependency %s: %s", depKey, prob))
		}
	}

	if len(problems) > 0 {
		probs := strings.Join(problems, "; ")
		svcProblems[svc] = probs
		return probs
	}

	svcProblems[svc] = ""
	return ""
}

func (c *Container) lookupService(key Key) service {
	svcs, ok := c.services[key]
	if !ok {
		return nil
	}

	// Return the last registered service for this key
	return svcs[len(svcs)-1]
}

// Contains returns true if the [Container] has a service registered for the given [reflect.Type].
//
// Available options:
//   - [WithTag] specifies the tag associated with the service.
func (c *Container) Contains(t reflect.Type, opts ...ResolveOption) bool {
	// Check if the type is a slice, look for the element type
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}

	_, found := c.services[newKey(t, opts)]
	return found
}

// Lifetime returns the lifetime and [Scope] of the service registered for key.
//
// The Scope is nil unless the lifetime is [Scoped].
// It returns [ErrServiceNotRegistered] if there is no such service.
func (c *Container) Lifetime(key Key) (Lifetime, Scope, error) {
	svc := c.lookupService(key)
	if svc == nil {
		return 0, nil, errors.Wrapf(ErrServiceNotRegistered, "di.Container.Lifetime %s", key)
	}

	return svc.Lifetime(), svc.Scope(), nil
}

// Resolve a service of the given [reflect.Type].
//
// The type must be registered with the [Container].
// This will return an error if the [Container] has been closed.
//
// The context is passed to constructor functions that accept a [context.Context] and
// to the [Scope] of scoped services.
//
// Available options:
//   - [WithTag] specifies the tag associated with the service.
func (c *Container) Resolve(ctx context.Context, t reflect.Type, opts ...ResolveOption) (any, error) {
	key := newKey(t, opts)

	c.closedMu.RLock()
	defer c.closedMu.RUnlock()

	if c.closed {
		return nil, errors.Wrapf(ErrContainerClosed, "di.Container.Resolve %s", key)
	}

	val, err := c.resolveKey(ctx, key, make(resolveVisitor), false)
	if err != nil {
		return val, errors.Wrapf(err, "di.Container.Resolve %s", key)
	}

	return val, nil
}

func (c *Container) resolveKey(
	ctx context.Context,
	key Key,
	visitor resolveVisitor,
	optional bool,
) (any, error) {
	if key.Type.Kind() == reflect.Slice {
		return c.resolveSliceKey(ctx, key, visitor, optional)
	}

	svc := c.lookupService(key)
	if svc == nil {
		return nil, ErrServiceNotRegistered
	}

	return c.resolveService(ctx, svc, visitor)
}

func (c *Container) resolveSliceKey(
	ctx context.Context,
	key Key,
	visitor resolveVisitor,
	optional bool,
) (any, error) {
	elementKey := Key{
		Type: key.Type.Elem(),
		Tag:  key.Tag,
	}

	svcs := c.services[elementKey]
	if len(svcs) == 0 && !optional {
		return nil, ErrServiceNotRegistered
	}

	sliceVal := reflect.MakeSlice(key.Type, 0, len(svcs))
	for _, svc := range svcs {
		val, err := c.resolveService(ctx, svc, visitor)
		if err != nil {
			return nil, err
		}
		if val != nil {
			sliceVal = reflect.Append(sliceVal, reflect.ValueOf(val))
		}
	}

	return sliceVal.Interface(), nil
}

func (c *Container) resolveService(
	ctx context.Context,
	svc service,
	visitor resolveVisitor,
) (any, error) {
	// Check context for errors
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	switch svc.Lifetime() {
	case Transient:
		val, err := c.createService(ctx, svc, visitor)
		if err == nil {
			c.addCloser(svc.CloserFor(val))
		}
		return val, err

	case Scoped:
		// Enter before calling the Scope, which may hold a lock on the key while creating
		if !visitor.Enter(svc) {
			return nil, ErrDependencyCycle
		}
		defer visitor.Leave(svc)

		// The Scope stores the instance and is responsible for closing it
		return svc.Scope().Scope(ctx, svc.Key(), func() (any, error) {
			return c.newInstance(ctx, svc, visitor)
		})

	default:
		return c.resolveSingleton(ctx, svc, visitor)
	}
}

func (c *Container) resolveSingleton(
	ctx context.Context,
	svc service,
	visitor resolveVisitor,
) (any, error) {
	c.resolvedMu.RLock()
	res, exists := c.resolved[svc]
	c.resolvedMu.RUnlock()

	if exists {
		return res.val, res.err
	}

	// Throw an error if we've already visited this service
	if !visitor.Enter(svc) {
		return nil, ErrDependencyCycle
	}
	defer visitor.Leave(svc)

	depVals, ready, err := c.resolveDependencies(ctx, svc, visitor)
	if err != nil {
		return nil, err
	}
	defer ready()

	// We need to lock before we create the service to make sure we don't create it twice
	c.resolvedMu.Lock()
	defer c.resolvedMu.Unlock()

	// Check if another goroutine resolved the service since the last check
	if res, exists := c.resolved[svc]; exists {
		return res.val, res.err
	}

	val, err := svc.New(depVals)
	c.resolved[svc] = resolveResult{val, err}

	if err == nil {
		c.addCloser(svc.CloserFor(val))
	}

	return val, err
}

func (c *Container) createService(
	ctx context.Context,
	svc service,
	visitor resolveVisitor,
) (any, error) {
	if !visitor.Enter(svc) {
		return nil, ErrDependencyCycle
	}
	defer visitor.Leave(svc)

	return c.newInstance(ctx, svc, visitor)
}

func (c *Container) newInstance(
	ctx context.Context,
	svc service,
	visitor resolveVisitor,
) (any, error) {
	depVals, ready, err := c.resolveDependencies(ctx, svc, visitor)
	if err != nil {
		return nil, err
	}
	defer ready()

	return svc.New(depVals)
}

// resolveDependencies resolves the dependencies of svc.
//
// The returned func must be called after the service has been created. It enables
// any injected Resolver.
func (c *Container) resolveDependencies(
	ctx context.Context,
	svc service,
	visitor resolveVisitor,
) ([]reflect.Value, func(), error) {
	deps := svc.Dependencies()
	if len(deps) == 0 {
		return nil, func() {}, nil
	}

	var readyFuncs []func()
	ready := func() {
		for _, f := range readyFuncs {
			f()
		}
	}

	depVals := make([]reflect.Value, len(deps))
	for i, depKey := range deps {
		var depVal any
		var depErr error

		switch depKey.Type {
		case typeContext:
			// Pass along the context
			depVal = ctx

		case typeResolver:
			var setReady func()
			depVal, setReady = newInjectedResolver(c, svc.Key())
			readyFuncs = append(readyFuncs, setReady)

		default:
			// If this is the last arg and the constructor function is variadic,
			// we treat it as optional.
			optional := i == len(deps)-1 && svc.IsVariadic()
			depVal, depErr = c.resolveDependency(ctx, svc, depKey, visitor, optional)
		}

		if depErr != nil {
			// Stop at the first error
			return nil, nil, errors.Wrapf(depErr, "dependency %s", depKey)
		}
		depVals[i] = safeReflectValue(depKey.Type, depVal)
	}

	return depVals, ready, nil
}

func (c *Container) resolveDependency(
	ctx context.Context,
	owner service,
	key Key,
	visitor resolveVisitor,
	optional bool,
) (any, error) {
	if key.Type.Kind() == reflect.Slice {
		return c.resolveSliceKey(ctx, key, visitor, optional)
	}

	depSvc := c.lookupService(key)
	if depSvc == nil {
		return nil, ErrServiceNotRegistered
	}

	// A singleton would keep the first scoped instance forever
	if owner.Lifetime() == Singleton && depSvc.Lifetime() == Scoped {
		return nil, errScopedDependency
	}

	return c.resolveService(ctx, depSvc, visitor)
}

func (c *Container) addCloser(closer Closer) {
	if closer == nil {
		return
	}

	c.closersMu.Lock()
	c.closers = append(c.closers, closer)
	c.closersMu.Unlock()
}

// Close the [Container] and resolved services.
//
// Services are closed in the reverse order they were resolved/created.
// Errors returned from closing services are joined together.
//
// Close will return an error if called more than once.
func (c *Container) Close(ctx context.Context) error {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()

	if c.closed {
		return errors.Wrap(ErrContainerClosed, "di.Container.Close: closed already")
	}
	c.closed = true

	// Close services in LIFO order
	// This is important because of dependencies
	var errs errors.MultiError
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = errs.Append(c.closers[i].Close(ctx))
	}

	return errs.Wrap("di.Container.Close")
}

var (
	// ErrServiceNotRegistered is returned when a service is not registered.
	ErrServiceNotRegistered = errors.New("service not registered")
	// ErrDependencyCycle is returned when a dependency cycle is detected.
	ErrDependencyCycle = errors.New("dependency cycle detected")
	// ErrContainerClosed is returned when a closed Container is used.
	ErrContainerClosed = errors.New("container closed")

	errScopedDependency = errors.New("singleton cannot depend on a scoped service: inject a di.Provider instead")
)

type optionOrder int8

const (
	orderService    optionOrder = iota
	orderValidation optionOrder = iota
)

func newContainerOption(order optionOrder, fn func(*Container) error) ContainerOption {
	return containerOption{fn: fn, ord: order}
}

type containerOption struct {
	fn  func(*Container) error
	ord optionOrder
}

func (o containerOption) order() optionOrder {
	return o.ord
}

func (o containerOption) applyContainer(c *Container) error {
	return o.fn(c)
}

type resolveVisitor map[service]struct{}

func (v resolveVisitor) Enter(s service) bool {
	if _, exists := v[s]; exists {
		return false
	}

	v[s] = struct{}{}
	return true
}

func (v resolveVisitor) Leave(s service) {
	delete(v, s)
}
