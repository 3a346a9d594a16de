// Package api defines the shared types, collaborator contracts, and error
// kinds of the steward system.
//
// Every package communicates through the types defined here: the manifest
// model, argument specifications, instance records, operation results, and
// the interfaces of the external collaborators the lifecycle state machine
// drives (source acquisition, script execution, the permission registry, the
// identity directory, the password policy, the instance repository).
//
// # Design
//
// The package holds contracts only; implementations live in their own
// packages and are injected where needed. This keeps the dependency
// direction strictly inward (implementations depend on api, never the
// reverse) and makes every collaborator replaceable by a fake in tests.
//
// # Error Handling
//
// Failures are typed per kind (source fetch, manifest, requirements,
// arguments, location conflicts, script failures, interruption, rollback)
// with errors.As-based predicates. Validation failures occur before any
// durable write and propagate immediately; failures after the first durable
// write trigger the compensating rollback path, whose own problems surface
// as warnings on the OperationResult rather than replacing the original
// error.
package api
