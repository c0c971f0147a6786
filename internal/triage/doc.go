// Package triage implements the decision-and-transformation pipeline of
// inboxtriage.
//
// The package is split into four parts:
//   - Classifier: keyword heuristics deciding whether an email is a simple
//     acknowledgement, urgent, or asks a question worth a web lookup
//   - ReplyComposer: personalises an LLM reply draft and splices in an
//     optional web snippet, keeping exactly one signature block
//   - MeetingExtractor: normalises an LLM meeting-extraction result into
//     candidate meeting records and filters out incomplete ones
//   - Dispatcher: drives every fetched email through classification,
//     drafting, alerting, persistence and its action branch
//
// All external systems (Gmail, Gemini, Slack, Calendar, Custom Search,
// SQLite) are reached through the small interfaces declared in
// dispatcher.go, so the pipeline can be exercised with fakes.
//
// Example usage:
//
//	d, err := triage.NewDispatcher(triage.Deps{
//	    Mailbox:   gmailClient,
//	    Profile:   gmailClient,
//	    Drafter:   llmClient,
//	    Meetings:  llmClient,
//	    Calendar:  calendarClient,
//	    Store:     emailStore,
//	    Confirmer: confirm.NewPrompter(os.Stdin, os.Stdout),
//	}, triage.WithMaxResults(5))
//	if err != nil {
//	    return err
//	}
//
//	report, err := d.Run(ctx)
package triage
