package triage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/inboxtriage/internal/logging"
)

// PlaceholderMeetingTitle is echoed verbatim by the model when the email
// does not name the meeting.
const PlaceholderMeetingTitle = "<Meeting Title>"

// DefaultMeetingTitle replaces PlaceholderMeetingTitle.
const DefaultMeetingTitle = "Meeting"

// ExtractionKind tags the variant held by a MeetingExtraction.
type ExtractionKind int

const (
	// ExtractionUnparsed holds raw model text that was not JSON.
	ExtractionUnparsed ExtractionKind = iota
	// ExtractionRecord holds one meeting-shaped object.
	ExtractionRecord
	// ExtractionList holds a sequence of extractions.
	ExtractionList
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractionRecord:
		return "record"
	case ExtractionList:
		return "list"
	default:
		return "unparsed"
	}
}

// MeetingExtraction is the result of asking the model for meeting details.
// Exactly one of the variant payloads is meaningful, chosen by Kind.
type MeetingExtraction struct {
	kind   ExtractionKind
	fields map[string]string
	raw    string
	items  []MeetingExtraction
}

// RecordExtraction builds the object variant from decoded JSON fields.
func RecordExtraction(fields map[string]string) MeetingExtraction {
	return MeetingExtraction{kind: ExtractionRecord, fields: fields}
}

// UnparsedExtraction builds the opaque variant from raw model text.
func UnparsedExtraction(raw string) MeetingExtraction {
	return MeetingExtraction{kind: ExtractionUnparsed, raw: raw}
}

// ListExtraction builds the sequence variant.
func ListExtraction(items ...MeetingExtraction) MeetingExtraction {
	return MeetingExtraction{kind: ExtractionList, items: items}
}

// Kind returns the variant tag.
func (e MeetingExtraction) Kind() ExtractionKind { return e.kind }

// Raw returns the model text of an unparsed extraction.
func (e MeetingExtraction) Raw() string { return e.raw }

// Fields returns the decoded fields of a record extraction.
func (e MeetingExtraction) Fields() map[string]string { return e.fields }

// Items returns the elements of a list extraction.
func (e MeetingExtraction) Items() []MeetingExtraction { return e.items }

// IsEmpty reports whether the extraction carries nothing at all, e.g. a
// blank model response or an empty list.
func (e MeetingExtraction) IsEmpty() bool {
	switch e.kind {
	case ExtractionRecord:
		return len(e.fields) == 0
	case ExtractionList:
		return len(e.items) == 0
	default:
		return strings.TrimSpace(e.raw) == ""
	}
}

// ParseMeetingExtraction decodes model output. JSON objects become records,
// JSON arrays become lists and anything else is kept as unparsed text.
// Markdown code fences around the JSON are ignored.
func ParseMeetingExtraction(raw string) MeetingExtraction {
	text := stripCodeFence(raw)

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return UnparsedExtraction(raw)
	}
	return fromJSON(decoded, raw)
}

func fromJSON(v any, raw string) MeetingExtraction {
	switch val := v.(type) {
	case map[string]any:
		fields := make(map[string]string, len(val))
		for k, fv := range val {
			if fv == nil {
				continue
			}
			if s, ok := fv.(string); ok {
				fields[k] = s
			} else {
				fields[k] = fmt.Sprint(fv)
			}
		}
		return RecordExtraction(fields)
	case []any:
		items := make([]MeetingExtraction, 0, len(val))
		for _, item := range val {
			switch iv := item.(type) {
			case string:
				items = append(items, UnparsedExtraction(iv))
			case map[string]any:
				items = append(items, fromJSON(iv, ""))
			default:
				b, _ := json.Marshal(iv)
				items = append(items, UnparsedExtraction(string(b)))
			}
		}
		return ListExtraction(items...)
	default:
		return UnparsedExtraction(raw)
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the info string, e.g. "json"
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// MeetingCandidate is one element of a normalised extraction. It is either
// a meeting-shaped record (possibly incomplete) or opaque text.
type MeetingCandidate struct {
	record MeetingRecord
	raw    string
	opaque bool
}

// Opaque reports whether the candidate is raw text rather than a record.
func (c MeetingCandidate) Opaque() bool { return c.opaque }

// Raw returns the text of an opaque candidate.
func (c MeetingCandidate) Raw() string { return c.raw }

// Record returns the meeting if it carries every required field.
func (c MeetingCandidate) Record() (MeetingRecord, error) {
	if c.opaque {
		return MeetingRecord{}, fmt.Errorf("%w: not a meeting record", ErrValidation)
	}
	if err := c.record.Validate(); err != nil {
		return MeetingRecord{}, err
	}
	return c.record, nil
}

// Normalize flattens any extraction into a sequence of candidates. A record
// or an unparsed string becomes a one-element sequence; a list keeps its
// elements in order. Placeholder titles are rewritten to "Meeting".
func Normalize(ex MeetingExtraction) []MeetingCandidate {
	switch ex.kind {
	case ExtractionRecord:
		return []MeetingCandidate{candidateFromFields(ex.fields)}
	case ExtractionList:
		out := make([]MeetingCandidate, 0, len(ex.items))
		for _, item := range ex.items {
			out = append(out, Normalize(item)...)
		}
		return out
	default:
		return []MeetingCandidate{{raw: ex.raw, opaque: true}}
	}
}

func candidateFromFields(fields map[string]string) MeetingCandidate {
	rec := MeetingRecord{
		Title:    strings.TrimSpace(fields["title"]),
		Date:     strings.TrimSpace(fields["date"]),
		Time:     normalizeClock(fields["time"]),
		Timezone: strings.TrimSpace(fields["timezone"]),
	}
	if rec.Title == PlaceholderMeetingTitle {
		rec.Title = DefaultMeetingTitle
	}
	return MeetingCandidate{record: rec}
}

// ValidMeetings returns the complete records among candidates, logging and
// skipping the rest.
func ValidMeetings(candidates []MeetingCandidate, logger *slog.Logger) []MeetingRecord {
	if logger == nil {
		logger = slog.Default()
	}

	var out []MeetingRecord
	for i, c := range candidates {
		rec, err := c.Record()
		if err != nil {
			logger.Info("skipping meeting candidate",
				"index", i,
				"opaque", c.opaque,
				"raw_preview", logging.Truncate(c.raw, 80),
				slog.String(logging.KeyFailure, FailureValidation),
				logging.Err(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}
