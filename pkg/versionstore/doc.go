/*
Package versionstore implements spec section 4.1's VersionedStore: a
typed view over orchestrator entries named "<prefix>.<N>".

There is exactly one concrete type, Store, parameterised by a Backend
(list/create over a name prefix). pkg/orchestrator supplies two Backend
values per managed object — one over Swarm secrets, one over Swarm
configs — and wraps them in a Store wherever spec.md names a versioned
family: svc.<id>.key., svc.<id>.crt., dhparam., config.
*/
package versionstore
