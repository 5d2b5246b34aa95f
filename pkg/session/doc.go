/*
Package session hosts one store per session id.

The Manager opens (or resumes) a session by hydrating its last snapshot through
the root reducer, wires the per-session middleware (history recorder, thunk,
snapshot persistence) and serialises access per session id. A
ports.DistributedLocker extends that serialisation across replicas that share
the same snapshot store.
*/
package session
