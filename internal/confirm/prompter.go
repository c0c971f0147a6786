package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/teemow/inboxtriage/internal/triage"
)

// maxAttempts bounds how often an unrecognised answer is asked again.
const maxAttempts = 3

// Prompter shows the drafted reply and asks on a line-oriented reader.
// End of input counts as a decline.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading answers from in and writing the
// review to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm implements triage.Confirmer.
func (p *Prompter) Confirm(ctx context.Context, req triage.ConfirmationRequest) (triage.Decision, error) {
	p.render(req)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return triage.Declined, err
		}

		fmt.Fprint(p.out, "Do you want to send this reply? (yes/no/later): ")
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return triage.Declined, fmt.Errorf("reading answer: %w", err)
		}

		if d, ok := parseAnswer(line); ok {
			return d, nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return triage.Declined, nil
		}
		fmt.Fprintln(p.out, "Please answer yes, no or later.")
	}

	return triage.Declined, nil
}

func (p *Prompter) render(req triage.ConfirmationRequest) {
	w := p.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Email needs review")
	fmt.Fprintf(w, "  From:    %s\n", req.Email.Sender)
	fmt.Fprintf(w, "  Subject: %s\n", req.Email.Subject)
	if req.Summary != "" {
		fmt.Fprintf(w, "  Summary: %s\n", req.Summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Proposed reply:")
	for _, line := range strings.Split(req.Reply, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(req.Meetings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Meetings to schedule:")
		for _, m := range req.Meetings {
			fmt.Fprintf(w, "  - %s on %s at %s (%s)\n", m.Title, m.Date, m.Time, m.Timezone)
		}
	}
	fmt.Fprintln(w)
}

// parseAnswer maps a typed answer to a decision. An empty answer is not
// accepted so a stray Enter does not decide anything.
func parseAnswer(line string) (triage.Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return triage.Approved, true
	case "n", "no":
		return triage.Declined, true
	case "l", "later", "d", "defer":
		return triage.Deferred, true
	default:
		return triage.Declined, false
	}
}
