/*
Package ports defines the driven ports (interfaces) for the Flux store.

These interfaces decouple the store and its middleware from external
implementations, so the same pipeline works with various storage backends.

# Key Interfaces

  - SnapshotStore: Responsible for persisting and loading session snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
