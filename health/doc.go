// Package health tracks the runtime health of a component host: the state
// of each published component, the session store, and an aggregate rollup
// suitable for readiness endpoints.
package health
