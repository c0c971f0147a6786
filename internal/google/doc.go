// Package google provides OAuth2 authentication and token storage for the
// Google APIs inboxtriage talks to (Gmail, Calendar, People).
//
// Tokens are kept as JSON in a single file in the cache directory. The
// Authenticator hands out HTTP clients whose refreshed tokens are written
// back to that file.
package google
