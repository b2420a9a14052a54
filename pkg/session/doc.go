// Package session holds the credentials the API client authenticates with.
//
// A Session is created at sign-in, replaced whenever the refresh coordinator
// obtains a new access token, and destroyed at sign-out or when the refresh
// token is exhausted. Every writer goes through a Store so readers always see
// the latest committed value. MemoryStore suits long-lived processes and tests;
// KeyringStore persists the session in the operating system keyring so short
// lived CLI invocations can share it.
package session
