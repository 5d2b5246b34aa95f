// Package middleware decorates a ports.SnapshotStore with cross-cutting
// persistence behavior: encryption at rest and masking of sensitive fields.
package middleware
