// Package zyango provides the dispatch core of a distributed component
// runtime: server-side objects are published under unique names, activated
// per call or as singletons, and invoked by remote clients through a
// reflective dispatch pipeline that carries session, transaction, and
// callback wiring across the call boundary.
//
// # Architecture
//
// The core is a pipeline of small, explicitly wired packages:
//
//	┌─────────────────────────────────────┐
//	│         host.ComponentHost          │  Composition root,
//	│   (catalog + dispatcher + sessions) │  endpoint lifecycle
//	└─────────────────────────────────────┘
//	           ↓ dispatches via
//	┌─────────────────────────────────────┐
//	│         dispatch.Dispatcher         │  Validation, hooks,
//	│  (resolve, activate, wire, invoke)  │  session/transaction scope
//	└─────────────────────────────────────┘
//	           ↓ resolves through
//	┌─────────────────────────────────────┐
//	│          catalog.Catalog            │  Registrations, activation
//	│    (single-call / singleton)        │  policy, instance cleanup
//	└─────────────────────────────────────┘
//	           ↓ wires callbacks with
//	┌─────────────────────────────────────┐
//	│       wiring.DynamicWireFactory     │  Reflective adapters from
//	│  (events, delegate-typed members)   │  server members to clients
//	└─────────────────────────────────────┘
//
// Network transports, wire serialization, and client proxy generation are
// deliberately outside the core. They connect through narrow collaborator
// contracts: the dispatcher's Invoke/Logon/Logoff surface, the
// session.Manager store, the auth.Provider authenticator, and the callctx
// call-data carrier.
//
// # Framework Packages
//
// Dispatch core:
//   - catalog: component registrations, activation policy, cleanup
//   - dispatch: the per-call invocation pipeline and session operations
//   - wiring: delegate/event correlation and dynamic wire generation
//   - intercept: client-side call interception before dispatch
//   - host: composition root binding the core together
//
// Collaborator contracts and defaults:
//   - session: server session model, in-memory manager with expiry sweep
//   - auth: authentication provider contract, basic and null providers
//   - callctx: per-logical-call context data (session id, transaction)
//
// Infrastructure:
//   - config: host settings loading and validation
//   - errors: structured error handling with dispatch error codes
//   - metric: Prometheus metrics
//   - health: health status tracking for core subsystems
//
// # Design Principles
//
// Explicit wiring over ambient state:
//   - No globals; every dependency is a constructor argument
//   - Call-scoped data travels in a context.Context, never a thread-local
//
// Separation of naming from lifetime:
//   - Unregistering a component removes its name, not its live instance
//   - Cleanup is an explicit, separately owned operation
//
// Testability:
//   - Collaborators are small interfaces with in-memory defaults
//   - Isolated catalogs/dispatchers per test, no shared registries
package zyango
