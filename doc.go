// Package signup provides the account provisioning workflow: field
// validation, availability checks, identity plus profile creation with a
// compensating rollback, session establishment and HTTP helpers.
//
// Provisioning:
//   - CreateAccountHandler re-validates the draft, resolves the referrer by
//     username in the ProfileStore, creates the identity in the IdentityStore
//     and then inserts the profile keyed by the identity id. When the insert
//     fails the identity is deleted and ProfileCreationFailed is returned even
//     if the delete itself fails. Failed compensations are logged and emitted
//     as activity events for out of band reconciliation.
//
// Sessions:
//   - SessionEstablisher exchanges an email or username plus password for a
//     signed session token. Enrollment chains provisioning and login and
//     reports a login failure as a distinct, non fatal condition.
//
// Wizard:
//   - Wizard models the client side draft with explicit tri-state verdicts.
//     Editing a checked field resets its verdict and any verdict that depends
//     on it.
//
// Route gating lives in the middleware/routeguard package.
package signup
