package instrumentation

// Cardinality management helpers for metrics.
//
// Label values on pipeline metrics come from a small fixed vocabulary.
// Anything outside it is folded into LabelOther so a bug or a new
// collaborator cannot explode the series count.

// LabelOther replaces label values outside the known set.
const LabelOther = "other"

// Collaborator names used as the collaborator label.
const (
	CollaboratorGmail    = "gmail"
	CollaboratorCalendar = "calendar"
	CollaboratorLLM      = "llm"
	CollaboratorSearch   = "search"
	CollaboratorSlack    = "slack"
	CollaboratorStore    = "store"
)

// Processing paths used as the path label.
const (
	PathSimple   = "simple"
	PathComplex  = "complex"
	PathDeferred = "deferred"
)

var (
	knownCollaborators = []string{
		CollaboratorGmail, CollaboratorCalendar, CollaboratorLLM,
		CollaboratorSearch, CollaboratorSlack, CollaboratorStore,
	}
	knownPaths    = []string{PathSimple, PathComplex, PathDeferred}
	knownStatuses = []string{StatusSuccess, StatusError}
	knownMeetings = []string{MeetingCreated, MeetingSkipped, MeetingFailed}
)

// BoundedLabel returns value when it is one of allowed, LabelOther otherwise.
//
// Example:
//
//	BoundedLabel("gmail", "gmail", "slack")   // "gmail"
//	BoundedLabel("jane@example.com", "gmail") // "other"
func BoundedLabel(value string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return LabelOther
}
