package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/zyanfx/zyango/errors"
)

// Queryable marks return types that expose deferred query evaluation.
// Interface methods with no parameters returning a Queryable get a
// companion query handler registered through the QueryHandlerRegistrar
// collaborator.
type Queryable interface {
	Queryable()
}

// QueryHandlerRegistrar is the collaborator hook bridging queryable
// component members to an external query subsystem.
type QueryHandlerRegistrar interface {
	RegisterQueryHandler(componentName, methodName string, returnType reflect.Type) error
}

var queryableType = reflect.TypeOf((*Queryable)(nil)).Elem()

// RegistrationConfig provides a clean API for component registration.
// Exactly one of Implementation, Initializer, or Instance must be set.
type RegistrationConfig struct {
	// UniqueName keys the registration in the catalog. Empty defaults to
	// the interface's fully qualified name.
	UniqueName string

	// Interface is the published interface type, e.g.
	// reflect.TypeOf((*ChatService)(nil)).Elem().
	Interface reflect.Type

	// Implementation is the concrete type constructed per activation.
	Implementation reflect.Type

	// Initializer constructs instances in place of reflective construction.
	Initializer Factory

	// Instance is a pre-built, externally owned instance. Forces singleton
	// activation.
	Instance any

	// Activation selects the instance policy.
	Activation ActivationType

	// CleanupHandler, when set, is the exclusive teardown mechanism.
	CleanupHandler CleanupHandler
}

// CatalogOption is a functional option for configuring Catalog
type CatalogOption func(*Catalog)

// WithQueryHandlerRegistrar wires the query subsystem collaborator.
func WithQueryHandlerRegistrar(registrar QueryHandlerRegistrar) CatalogOption {
	return func(c *Catalog) { c.queryRegistrar = registrar }
}

// Catalog owns the name to registration map and component activation.
// Registry access is guarded by an RWMutex; per-registration state is
// guarded by each registration's own mutex.
type Catalog struct {
	mu            sync.RWMutex
	registrations map[string]*Registration
	disposed      bool

	logger         *slog.Logger
	queryRegistrar QueryHandlerRegistrar
}

// NewCatalog creates an empty component catalog.
func NewCatalog(logger *slog.Logger, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		registrations: make(map[string]*Registration),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterComponent publishes a component under its unique name. The
// returned boolean is false when the name is already taken: the first
// registration wins and the duplicate is an observable no-op.
func (c *Catalog) RegisterComponent(cfg RegistrationConfig) (bool, error) {
	reg, err := c.buildRegistration(cfg)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false, errors.WrapObjectDisposed(
			errors.ErrCatalogDisposed, "Catalog", "RegisterComponent", "disposal check")
	}
	if _, exists := c.registrations[reg.uniqueName]; exists {
		c.mu.Unlock()
		c.logger.Warn("Component name already registered, keeping first registration",
			"name", reg.uniqueName)
		return false, nil
	}
	c.registrations[reg.uniqueName] = reg
	c.mu.Unlock()

	if err := c.registerQueryHandlers(reg); err != nil {
		return true, err
	}
	return true, nil
}

// UnregisterComponent removes the registration for the name. The removal
// does not destroy a live singleton instance; callers wanting immediate
// teardown must invoke CleanUpComponentInstance separately.
func (c *Catalog) UnregisterComponent(uniqueName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return errors.WrapObjectDisposed(
			errors.ErrCatalogDisposed, "Catalog", "UnregisterComponent", "disposal check")
	}
	delete(c.registrations, uniqueName)
	return nil
}

// GetRegistration retrieves the registration for the name.
func (c *Catalog) GetRegistration(uniqueName string) (*Registration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.disposed {
		return nil, errors.WrapObjectDisposed(
			errors.ErrCatalogDisposed, "Catalog", "GetRegistration", "disposal check")
	}
	reg, exists := c.registrations[uniqueName]
	if !exists {
		return nil, errors.WrapNotFound(
			fmt.Errorf("component %q: %w", uniqueName, errors.ErrUnknownComponent),
			"Catalog", "GetRegistration", "name lookup")
	}
	return reg, nil
}

// Registrations returns a snapshot of all current registrations.
func (c *Catalog) Registrations() []*Registration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Registration, 0, len(c.registrations))
	for _, reg := range c.registrations {
		result = append(result, reg)
	}
	return result
}

// GetComponentInstance activates an instance per the registration's policy:
// a fresh instance for every single-call activation, the lazily created
// shared instance for singletons.
func (c *Catalog) GetComponentInstance(reg *Registration) (any, error) {
	if reg == nil {
		return nil, errors.WrapInvalidArgument(
			errors.New("registration cannot be nil"),
			"Catalog", "GetComponentInstance", "registration validation")
	}

	switch reg.activation {
	case ActivationSingleCall:
		return c.createInstance(reg)

	case ActivationSingleton:
		// Lock-free fast path once the singleton exists.
		if instance := reg.SingletonInstance(); instance != nil {
			return instance, nil
		}
		reg.mu.Lock()
		defer reg.mu.Unlock()
		if instance := reg.SingletonInstance(); instance != nil {
			return instance, nil
		}
		instance, err := c.createInstance(reg)
		if err != nil {
			return nil, err
		}
		reg.storeSingleton(instance)
		return instance, nil

	default:
		return nil, errors.WrapInternal(
			fmt.Errorf("activation %d: %w", reg.activation, errors.ErrUnknownActivation),
			"Catalog", "GetComponentInstance", "activation dispatch")
	}
}

// CleanUpComponentInstance tears down an instance under the registration's
// lock. A supplied cleanup handler is the exclusive mechanism; otherwise
// the instance's own disposal capability runs only when the catalog owns
// the instance. Externally owned instances are never touched.
func (c *Catalog) CleanUpComponentInstance(reg *Registration, instance any) error {
	if reg == nil || instance == nil {
		return nil
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.cleanupHandler != nil {
		reg.cleanupHandler(instance)
		return nil
	}
	if !reg.disposeWithCatalog {
		return nil
	}

	switch target := instance.(type) {
	case Disposable:
		target.Dispose()
	case io.Closer:
		if err := target.Close(); err != nil {
			return errors.Wrap(err, "Catalog", "CleanUpComponentInstance", "instance close")
		}
	}
	return nil
}

// Dispose tears down the catalog: every singleton instance is cleaned up
// with continue-on-error semantics, persisted event wirings are detached,
// and the registry is cleared. Idempotent; all registry access afterwards
// fails with an object-disposed error.
func (c *Catalog) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	regs := make([]*Registration, 0, len(c.registrations))
	for _, reg := range c.registrations {
		regs = append(regs, reg)
	}
	c.registrations = nil
	c.mu.Unlock()

	for _, reg := range regs {
		for _, w := range reg.drainEventWirings() {
			w.Detach()
		}

		instance := reg.SingletonInstance()
		if instance == nil {
			continue
		}
		if err := c.CleanUpComponentInstance(reg, instance); err != nil {
			c.logger.Error("Component cleanup failed during catalog disposal",
				"component", reg.uniqueName, "error", err)
		}
		reg.clearSingleton()
	}
}

// createInstance constructs an instance via the registration's creation
// strategy and verifies it satisfies the published interface.
func (c *Catalog) createInstance(reg *Registration) (any, error) {
	var instance any
	switch {
	case reg.initializer != nil:
		instance = reg.initializer()
	case reg.implementationType != nil:
		implType := reg.implementationType
		if implType.Kind() == reflect.Ptr {
			instance = reflect.New(implType.Elem()).Interface()
		} else {
			instance = reflect.New(implType).Elem().Interface()
		}
	default:
		return nil, errors.WrapInternal(
			errors.ErrNoCreationPath, "Catalog", "createInstance", "creation strategy dispatch")
	}

	if instance == nil {
		return nil, errors.WrapInternal(
			errors.New("creation strategy produced a nil instance"),
			"Catalog", "createInstance", "instance validation")
	}
	if err := satisfiesInterface(reflect.TypeOf(instance), reg.interfaceType); err != nil {
		return nil, errors.WrapTypeMismatch(err, "Catalog", "createInstance", "interface check")
	}
	return instance, nil
}

// buildRegistration validates a registration config and constructs the
// Registration.
func (c *Catalog) buildRegistration(cfg RegistrationConfig) (*Registration, error) {
	if cfg.Interface == nil || cfg.Interface.Kind() != reflect.Interface {
		return nil, errors.WrapInvalidArgument(
			errors.ErrNotInterface, "Catalog", "RegisterComponent", "interface validation")
	}

	strategies := 0
	if cfg.Implementation != nil {
		strategies++
	}
	if cfg.Initializer != nil {
		strategies++
	}
	if cfg.Instance != nil {
		strategies++
	}
	if strategies != 1 {
		return nil, errors.WrapInvalidArgument(
			errors.ErrNoCreationPath, "Catalog", "RegisterComponent", "creation strategy validation")
	}

	reg := &Registration{
		uniqueName:         cfg.UniqueName,
		interfaceType:      cfg.Interface,
		activation:         cfg.Activation,
		cleanupHandler:     cfg.CleanupHandler,
		disposeWithCatalog: true,
	}
	if reg.uniqueName == "" {
		reg.uniqueName = fullName(cfg.Interface)
	}

	switch {
	case cfg.Implementation != nil:
		if cfg.Implementation.Kind() == reflect.Interface {
			return nil, errors.WrapInvalidArgument(
				errors.ErrNotConcrete, "Catalog", "RegisterComponent", "implementation validation")
		}
		if err := satisfiesInterface(cfg.Implementation, cfg.Interface); err != nil {
			return nil, errors.WrapTypeMismatch(err, "Catalog", "RegisterComponent", "member check")
		}
		reg.implementationType = cfg.Implementation

	case cfg.Initializer != nil:
		// Factory output is verified at activation; there is nothing to
		// check statically.
		reg.initializer = cfg.Initializer

	case cfg.Instance != nil:
		if err := satisfiesInterface(reflect.TypeOf(cfg.Instance), cfg.Interface); err != nil {
			return nil, errors.WrapTypeMismatch(err, "Catalog", "RegisterComponent", "member check")
		}
		// A live externally supplied instance is always a singleton; the
		// catalog owns it only when a cleanup handler was provided.
		reg.activation = ActivationSingleton
		reg.storeSingleton(cfg.Instance)
		reg.disposeWithCatalog = cfg.CleanupHandler != nil
	}

	return reg, nil
}

// registerQueryHandlers scans the interface for zero-parameter methods
// returning a Queryable and registers companion query handlers with the
// collaborator. Without a registrar the scan is skipped.
func (c *Catalog) registerQueryHandlers(reg *Registration) error {
	if c.queryRegistrar == nil {
		return nil
	}

	iface := reg.interfaceType
	for i := 0; i < iface.NumMethod(); i++ {
		method := iface.Method(i)
		if method.Type.NumIn() != 0 || method.Type.NumOut() == 0 {
			continue
		}
		returnType := method.Type.Out(0)
		if !returnType.Implements(queryableType) {
			continue
		}
		if err := c.queryRegistrar.RegisterQueryHandler(reg.uniqueName, method.Name, returnType); err != nil {
			return errors.Wrap(err, "Catalog", "RegisterComponent",
				fmt.Sprintf("query handler registration for %s", method.Name))
		}
	}
	return nil
}

// satisfiesInterface verifies candidate structurally satisfies iface and
// names the first missing or mismatched member otherwise.
func satisfiesInterface(candidate, iface reflect.Type) error {
	if candidate == nil {
		return errors.New("candidate type is nil")
	}
	if candidate.AssignableTo(iface) {
		return nil
	}
	for i := 0; i < iface.NumMethod(); i++ {
		want := iface.Method(i)
		got, ok := candidate.MethodByName(want.Name)
		if !ok {
			return fmt.Errorf("type %s is missing method %s declared by %s",
				candidate, want.Name, iface)
		}
		if !methodMatches(got.Type, want.Type) {
			return fmt.Errorf("type %s has method %s with signature %s, %s declares %s",
				candidate, want.Name, stripReceiver(got.Type), iface, want.Type)
		}
	}
	return fmt.Errorf("type %s does not satisfy %s", candidate, iface)
}

// methodMatches compares a concrete method signature (with receiver) to an
// interface method signature (without receiver).
func methodMatches(concrete, declared reflect.Type) bool {
	if concrete.NumIn()-1 != declared.NumIn() || concrete.NumOut() != declared.NumOut() {
		return false
	}
	for i := 0; i < declared.NumIn(); i++ {
		if concrete.In(i+1) != declared.In(i) {
			return false
		}
	}
	for i := 0; i < declared.NumOut(); i++ {
		if concrete.Out(i) != declared.Out(i) {
			return false
		}
	}
	return true
}

// stripReceiver renders a concrete method type without its receiver
// parameter for error messages.
func stripReceiver(concrete reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, concrete.NumIn()-1)
	for i := 1; i < concrete.NumIn(); i++ {
		in = append(in, concrete.In(i))
	}
	out := make([]reflect.Type, 0, concrete.NumOut())
	for i := 0; i < concrete.NumOut(); i++ {
		out = append(out, concrete.Out(i))
	}
	return reflect.FuncOf(in, out, concrete.IsVariadic())
}

// fullName returns the fully qualified name of a type, used as the default
// unique name for registrations.
func fullName(t reflect.Type) string {
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
