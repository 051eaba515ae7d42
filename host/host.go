// Package host provides the composition root of the runtime: it binds the
// component catalog, dispatcher, session manager, authentication provider,
// call interceptors, metrics and health monitoring into one ComponentHost
// with a single lifecycle.
package host

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zyanfx/zyango/auth"
	"github.com/zyanfx/zyango/catalog"
	"github.com/zyanfx/zyango/config"
	"github.com/zyanfx/zyango/dispatch"
	"github.com/zyanfx/zyango/errors"
	"github.com/zyanfx/zyango/health"
	"github.com/zyanfx/zyango/intercept"
	"github.com/zyanfx/zyango/metric"
	"github.com/zyanfx/zyango/session"
	"github.com/zyanfx/zyango/wiring"
)

// Option is a functional option for configuring ComponentHost
type Option func(*options)

type options struct {
	logger       *slog.Logger
	authProvider auth.Provider
	sessions     session.Manager
	transactions dispatch.TransactionManager
	metrics      *metric.Registry
}

// WithLogger overrides the logger built from the logging configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAuthProvider sets the authentication provider. The default accepts
// every client anonymously.
func WithAuthProvider(provider auth.Provider) Option {
	return func(o *options) { o.authProvider = provider }
}

// WithSessionManager replaces the in-memory session store.
func WithSessionManager(manager session.Manager) Option {
	return func(o *options) { o.sessions = manager }
}

// WithTransactionManager wires the distributed transaction collaborator.
func WithTransactionManager(manager dispatch.TransactionManager) Option {
	return func(o *options) { o.transactions = manager }
}

// WithMetricsRegistry shares a metrics registry between hosts.
func WithMetricsRegistry(registry *metric.Registry) Option {
	return func(o *options) { o.metrics = registry }
}

// ComponentHost is the server-side entry point of the runtime. It owns the
// catalog and every collaborator the dispatch pipeline needs.
type ComponentHost struct {
	name          string
	cfg           *config.Config
	logger        *slog.Logger
	catalog       *catalog.Catalog
	dispatcher    *dispatch.Dispatcher
	sessions      session.Manager
	sweeper       *session.InMemoryManager
	interceptors  *intercept.CallInterceptorCollection
	metrics       *metric.Registry
	metricsServer *metric.Server
	monitor       *health.Monitor

	callStarts sync.Map // uuid.UUID -> time.Time

	mu     sync.Mutex
	closed bool
}

// NewComponentHost creates a host from the given configuration.
func NewComponentHost(cfg *config.Config, opts ...Option) (*ComponentHost, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalidArgument(err, "ComponentHost", "NewComponentHost", "config validation")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg.Logging, os.Stdout).With("host", cfg.Host.Name)
	}

	sessions := o.sessions
	var sweeper *session.InMemoryManager
	if sessions == nil {
		sweeper = session.NewInMemoryManager(logger,
			session.WithSessionAgeLimit(cfg.Session.AgeLimit.Std()),
			session.WithSweepInterval(cfg.Session.SweepInterval.Std()),
		)
		sessions = sweeper
	}

	authProvider := o.authProvider
	if authProvider == nil {
		authProvider = auth.NullProvider{}
	}

	metrics := o.metrics
	if metrics == nil && cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
	}

	cat := catalog.NewCatalog(logger)

	dispatcherOpts := []dispatch.Option{}
	if o.transactions != nil {
		dispatcherOpts = append(dispatcherOpts, dispatch.WithTransactionManager(o.transactions))
	}
	dispatcher := dispatch.NewDispatcher(cat, sessions, authProvider, logger, dispatcherOpts...)

	h := &ComponentHost{
		name:         cfg.Host.Name,
		cfg:          cfg,
		logger:       logger,
		catalog:      cat,
		dispatcher:   dispatcher,
		sessions:     sessions,
		sweeper:      sweeper,
		interceptors: intercept.NewCallInterceptorCollection(),
		metrics:      metrics,
		monitor:      health.NewMonitor(),
	}

	if metrics != nil {
		h.instrumentDispatch()
		if cfg.Metrics.Enabled {
			h.metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metrics)
		}
	}

	h.monitor.UpdateHealthy("catalog", "No components registered yet")
	h.monitor.UpdateHealthy("sessions", "Session store ready")
	return h, nil
}

// Name returns the configured host name.
func (h *ComponentHost) Name() string {
	return h.name
}

// Start launches the background parts of the host: the session sweeper and
// the metrics server when enabled. It returns once they are running.
func (h *ComponentHost) Start(ctx context.Context) error {
	if err := h.guard("Start"); err != nil {
		return err
	}

	if h.sweeper != nil {
		if err := h.sweeper.Start(ctx); err != nil {
			return err
		}
	}
	if h.metricsServer != nil {
		go func() {
			if err := h.metricsServer.Start(); err != nil {
				h.logger.Error("Metrics server stopped", "error", err)
				h.monitor.UpdateUnhealthy("metrics", "Metrics server stopped unexpectedly")
			}
		}()
		h.monitor.UpdateHealthy("metrics", "Metrics server running")
	}

	h.logger.Info("Component host started", "host", h.name)
	return nil
}

// RegisterComponent publishes a component under its interface. It reports
// false when the unique name is already taken.
func (h *ComponentHost) RegisterComponent(cfg catalog.RegistrationConfig) (bool, error) {
	if err := h.guard("RegisterComponent"); err != nil {
		return false, err
	}
	added, err := h.catalog.RegisterComponent(cfg)
	if err == nil && h.metrics != nil {
		h.metrics.CoreMetrics().SetRegisteredComponents(len(h.catalog.Registrations()))
	}
	return added, err
}

// UnregisterComponent removes the published component.
func (h *ComponentHost) UnregisterComponent(uniqueName string) error {
	if err := h.guard("UnregisterComponent"); err != nil {
		return err
	}
	err := h.catalog.UnregisterComponent(uniqueName)
	if err == nil && h.metrics != nil {
		h.metrics.CoreMetrics().SetRegisteredComponents(len(h.catalog.Registrations()))
	}
	return err
}

// GetRegisteredComponents lists the published components.
func (h *ComponentHost) GetRegisteredComponents() []dispatch.ComponentInfo {
	return h.dispatcher.GetRegisteredComponents()
}

// Catalog exposes the component catalog to advanced callers.
func (h *ComponentHost) Catalog() *catalog.Catalog {
	return h.catalog
}

// Interceptors returns the call interceptor collection consulted before
// every Invoke.
func (h *ComponentHost) Interceptors() *intercept.CallInterceptorCollection {
	return h.interceptors
}

// SubscribeBeforeInvoke forwards to the dispatcher's before-invoke hook.
func (h *ComponentHost) SubscribeBeforeInvoke(fn func(*dispatch.BeforeInvokeEvent)) {
	h.dispatcher.SubscribeBeforeInvoke(fn)
}

// SubscribeAfterInvoke forwards to the dispatcher's after-invoke hook.
func (h *ComponentHost) SubscribeAfterInvoke(fn func(dispatch.AfterInvokeEvent)) {
	h.dispatcher.SubscribeAfterInvoke(fn)
}

// SubscribeInvokeCanceled forwards to the dispatcher's canceled hook.
func (h *ComponentHost) SubscribeInvokeCanceled(fn func(dispatch.CanceledEvent)) {
	h.dispatcher.SubscribeInvokeCanceled(fn)
}

// Logon authenticates a client and creates its server session.
func (h *ComponentHost) Logon(ctx context.Context, sessionID uuid.UUID, credentials map[string]string) (*session.Session, error) {
	if err := h.guard("Logon"); err != nil {
		return nil, err
	}
	sess, err := h.dispatcher.Logon(ctx, sessionID, credentials)
	if h.metrics != nil {
		h.metrics.CoreMetrics().RecordLogon(err == nil)
		if counter, ok := h.sessions.(interface{ Count() int }); ok {
			h.metrics.CoreMetrics().SetActiveSessions(counter.Count())
		}
	}
	return sess, err
}

// Logoff removes the client session.
func (h *ComponentHost) Logoff(sessionID uuid.UUID) {
	h.dispatcher.Logoff(sessionID)
	if h.metrics != nil {
		if counter, ok := h.sessions.(interface{ Count() int }); ok {
			h.metrics.CoreMetrics().SetActiveSessions(counter.Count())
		}
	}
}

// RenewSession refreshes the calling session and returns the age limit.
func (h *ComponentHost) RenewSession(ctx context.Context) (time.Duration, error) {
	if err := h.guard("RenewSession"); err != nil {
		return 0, err
	}
	return h.dispatcher.RenewSession(ctx)
}

// AddEventHandler subscribes a correlation to a singleton component event.
func (h *ComponentHost) AddEventHandler(interfaceName string, correlation wiring.CorrelationInfo) error {
	if err := h.guard("AddEventHandler"); err != nil {
		return err
	}
	err := h.dispatcher.AddEventHandler(interfaceName, correlation)
	if err == nil && h.metrics != nil {
		h.metrics.CoreMetrics().SetEventWirings(h.eventWiringCount())
	}
	return err
}

// RemoveEventHandler removes a correlation's subscription.
func (h *ComponentHost) RemoveEventHandler(interfaceName string, correlationID uuid.UUID) error {
	if err := h.guard("RemoveEventHandler"); err != nil {
		return err
	}
	err := h.dispatcher.RemoveEventHandler(interfaceName, correlationID)
	if err == nil && h.metrics != nil {
		h.metrics.CoreMetrics().SetEventWirings(h.eventWiringCount())
	}
	return err
}

// eventWiringCount sums the persistent event wirings across registrations.
func (h *ComponentHost) eventWiringCount() int {
	total := 0
	for _, reg := range h.catalog.Registrations() {
		total += reg.EventWiringCount()
	}
	return total
}

// HealthStatus refreshes and rolls up the host health.
func (h *ComponentHost) HealthStatus() health.Status {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return health.NewUnhealthy(h.name, "Host is closed")
	}

	wirings := h.eventWiringCount()
	if h.metrics != nil {
		h.metrics.CoreMetrics().SetEventWirings(wirings)
	}
	h.monitor.Update("catalog", health.NewHealthy("catalog", "Catalog serving").
		WithDetails(&health.Details{EventWirings: wirings}))

	if counter, ok := h.sessions.(interface{ Count() int }); ok {
		h.monitor.Update("sessions", health.NewHealthy("sessions", "Session store ready").
			WithDetails(&health.Details{ActiveSessions: counter.Count()}))
	}
	return h.monitor.AggregateHealth(h.name)
}

// Close tears the host down: session sweeper, metrics server and catalog.
// It is idempotent; every host operation afterwards reports the host as
// disposed.
func (h *ComponentHost) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	var g errgroup.Group
	if h.sweeper != nil {
		g.Go(func() error {
			return h.sweeper.Stop(5 * time.Second)
		})
	}
	if h.metricsServer != nil {
		g.Go(func() error {
			return h.metricsServer.Stop()
		})
	}
	err := g.Wait()

	h.catalog.Dispose()
	h.logger.Info("Component host closed", "host", h.name)
	return err
}

func (h *ComponentHost) guard(operation string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.WrapObjectDisposed(errors.ErrHostClosed, "ComponentHost", operation, "host state check")
	}
	return nil
}

// instrumentDispatch subscribes metric recorders to the dispatch hooks.
func (h *ComponentHost) instrumentDispatch() {
	core := h.metrics.CoreMetrics()

	h.dispatcher.SubscribeBeforeInvoke(func(e *dispatch.BeforeInvokeEvent) {
		h.callStarts.Store(e.TrackingID, time.Now())
	})
	h.dispatcher.SubscribeAfterInvoke(func(e dispatch.AfterInvokeEvent) {
		core.RecordCall(e.InterfaceName, e.MethodName, "ok")
		if start, ok := h.callStarts.LoadAndDelete(e.TrackingID); ok {
			core.RecordCallDuration(e.InterfaceName, e.MethodName, time.Since(start.(time.Time)))
		}
	})
	h.dispatcher.SubscribeInvokeCanceled(func(e dispatch.CanceledEvent) {
		core.RecordCall(e.InterfaceName, e.MethodName, "error")
		core.RecordCanceledInvocation(e.InterfaceName, e.MethodName)
		h.callStarts.Delete(e.TrackingID)
	})
}
