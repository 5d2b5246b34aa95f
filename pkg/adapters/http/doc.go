// Package http exposes session stores over a JSON API built on chi.
//
// Routes:
//
//	GET    /health
//	GET    /info
//	GET    /metrics
//	GET    /sessions
//	GET    /sessions/{id}/state
//	POST   /sessions/{id}/dispatch
//	GET    /sessions/{id}/history
//	GET    /sessions/{id}/events?watch=counter,results
//	DELETE /sessions/{id}
package http
