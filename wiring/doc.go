// Package wiring bridges remote delegate and event subscriptions back to
// specific client-side receivers across the call boundary.
//
// A client that subscribes to a server event (or passes a callback as a
// call argument) ships a CorrelationInfo describing the target member and
// a DelegateInterceptor standing in for the client-side receiver. The
// DynamicWireFactory synthesizes a wire for the member: a reflectively
// generated function whose shape mirrors the member's signature and whose
// body forwards every invocation to the interceptor. Server components
// expose event members as *EventSlot fields (add/remove semantics, keyed
// by correlation id) and delegate members as plain func-typed fields
// (direct assignment).
//
// Wire synthesis per (component type, member) is the expensive step and is
// cached; instantiating a wire from a cached binding is cheap and happens
// once per correlation.
package wiring
