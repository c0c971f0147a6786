// Package gmail reads recent inbox mail, sends replies, and resolves the
// account's display name through the Gmail and People APIs.
//
// Message bodies are reduced to their first text/plain part, decoded from
// base64url and trimmed. Bodies that cannot be decoded come back empty
// rather than as errors.
package gmail
