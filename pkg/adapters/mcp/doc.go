// Package mcp exposes session stores as a Model Context Protocol server.
//
// Tools: dispatch, get_state, get_history, list_sessions.
// Resources: flux://state (the default session) and flux://sessions/{id}/state.
package mcp
