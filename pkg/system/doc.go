// Package system holds process-wide logging helpers: the zap logger setup and
// the request-scoped logger carried through gin and context.Context.
package system
