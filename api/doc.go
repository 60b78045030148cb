// Package api implements the Connect contact management client.
//
// Every call resolves the base URL for the target network, authenticates with
// the cached bearer token for that network and normalizes the response into a
// core.Outcome. A 401 response invalidates the token and the call is replayed
// with a fresh token at most MaxAuthRetries times.
package api
