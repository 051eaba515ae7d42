// Package testutil provides shared fixtures for host and dispatch tests:
// sample component implementations, a recording authentication provider,
// a scripted transaction manager, and small helpers for loggers and call
// contexts. Nothing here touches the network.
package testutil
