package triage

import (
	"slices"
	"strings"
)

var (
	simpleKeywords = []string{
		"thank you", "thanks", "confirmation", "confirmed", "acknowledged", "received",
	}

	urgencyKeywords = []string{
		"urgent", "asap", "immediately", "important", "emergency",
		"action required", "respond quickly", "critical", "deadline", "attention",
	}

	questionKeywords = []string{
		"what is", "how to", "explain", "define", "current", "latest",
	}
)

// SimpleKeywords returns the acknowledgement keywords.
func SimpleKeywords() []string { return slices.Clone(simpleKeywords) }

// UrgencyKeywords returns the urgency keywords.
func UrgencyKeywords() []string { return slices.Clone(urgencyKeywords) }

// QuestionKeywords returns the keywords that trigger a web lookup.
func QuestionKeywords() []string { return slices.Clone(questionKeywords) }

// IsSimpleCase reports whether the body reads as a plain acknowledgement
// that can be answered without a human looking at it.
func IsSimpleCase(body string) bool {
	return containsAny(body, simpleKeywords)
}

// IsUrgent reports whether subject or body carry an urgency keyword.
func IsUrgent(body, subject string) bool {
	return containsAny(subject+" "+body, urgencyKeywords)
}

// NeedsWebLookup reports whether the body looks like it asks a factual
// question.
func NeedsWebLookup(body string) bool {
	return containsAny(body, questionKeywords)
}

// containsAny is a case-insensitive substring match that stops at the
// first hit.
func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
