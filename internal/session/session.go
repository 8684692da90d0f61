// Package session manages login sessions. Each session is an opaque token
// mapped to the authenticated user's identity, stored as a Redis hash with a
// TTL that is refreshed on activity.
package session
