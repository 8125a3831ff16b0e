// Package identity provides account authentication primitives (bearer token
// issuance, credential verification, stateful repositories, HTTP helpers)
// plus the role selection flow that gates full authorization.
//
// Role lifecycle:
//   - Users are created with the unassigned role. A bearer token is issued at
//     signup or login either way, but role-gated routes stay closed until the
//     account picks its role.
//   - RoleStateMachine centralizes the one-way transition out of unassigned.
//     First assignment is terminal: repeat submissions of the same role are
//     accepted as no-ops, any other role is rejected.
//
// Federated identities:
//   - The federated subpackage resolves upstream OAuth profiles to local
//     accounts: by external id first, then by verified email (linking the
//     external id to the existing account), finally by creating a fresh
//     account. Conflict errors from concurrent resolutions re-run the lookup
//     instead of failing the login.
//
// Handshakes:
//   - The handshake subpackage keeps short-lived OAuth round-trip state in a
//     shared store so any process in the fleet can finish a flow another
//     process started.
package identity
