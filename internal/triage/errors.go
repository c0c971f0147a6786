package triage

import "errors"

// Failure classes. Only ErrFetch escapes Dispatcher.Run; everything else is
// recovered inside the email it happened in.
var (
	// ErrFetch means the mail provider could not be reached at all.
	ErrFetch = errors.New("fetch failure")

	// ErrBodyDecode means a message body could not be decoded; an empty
	// body is substituted.
	ErrBodyDecode = errors.New("body decode failure")

	// ErrLLMParse means a language model response did not have the
	// expected shape.
	ErrLLMParse = errors.New("llm parse failure")

	// ErrCollaborator wraps a failed call to Slack, Calendar, Search,
	// Gmail send, the store or the language model.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrValidation marks a malformed meeting record.
	ErrValidation = errors.New("validation failure")

	// ErrUnknownDecision is returned when resolving a pause token that is
	// not pending.
	ErrUnknownDecision = errors.New("unknown or already resolved decision")
)

// Failure class names used in logs and metrics.
const (
	FailureFetch        = "fetch"
	FailureBodyDecode   = "body_decode"
	FailureLLMParse     = "llm_parse"
	FailureCollaborator = "collaborator"
	FailureValidation   = "validation"
	FailureUnknown      = "unknown"
)

// FailureClass maps an error onto its failure class name.
func FailureClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return FailureFetch
	case errors.Is(err, ErrBodyDecode):
		return FailureBodyDecode
	case errors.Is(err, ErrLLMParse):
		return FailureLLMParse
	case errors.Is(err, ErrValidation):
		return FailureValidation
	case errors.Is(err, ErrCollaborator):
		return FailureCollaborator
	default:
		return FailureUnknown
	}
}
