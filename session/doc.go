// Package session owns the client's authentication state.
//
// Store is the single source of truth: the current user, the access and
// refresh tokens and a tri-state Status. It is the only writer of persisted
// tokens and keeps the durable copy in lockstep with memory.
//
// Service drives the lifecycle transitions against the remote API:
//
//	pending ──Restore ok──────────────▶ authenticated
//	pending ──Restore failed/no token─▶ unauthenticated
//	authenticated ──Logout / refresh failure / identity failure──▶ unauthenticated
//	unauthenticated ──Login ok────────▶ authenticated
//
// pending is only ever the initial state.
package session
