// Package middleware wraps variable stores with cross-cutting behaviour
// such as encryption at rest and PII masking.
package middleware

import "github.com/aretw0/flowbot/pkg/ports"

// Middleware allows wrapping a VariableStore to add behavior.
type Middleware func(ports.VariableStore) ports.VariableStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.VariableStore, mws ...Middleware) ports.VariableStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
