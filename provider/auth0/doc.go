// Package auth0 provides an Auth0 backed identity store for go-signup.
//
// Use this package with signup.NewAccountOrchestrator and
// signup.NewSessionEstablisher to keep credentials in an Auth0 database
// connection while profiles stay in the local store.
package auth0
