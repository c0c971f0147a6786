package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/triage"
)

const (
	// DefaultSubject is used when a message has no Subject header.
	DefaultSubject = "No Subject"
	// DefaultSender is used when a message has no From header.
	DefaultSender = "Unknown Sender"

	inboxLabel = "INBOX"
	me         = "me"
)

// Client wraps the Gmail Users service and the People service.
type Client struct {
	svc          *gmail.UsersService
	peopleSvc    *people.Service
	fallbackName string
	logger       *slog.Logger
}

// NewClient creates a Gmail client. Pass option.WithHTTPClient with an
// authorised client; tests pass option.WithEndpoint as well.
func NewClient(ctx context.Context, fallbackName string, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	peopleSvc, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		svc:          svc.Users,
		peopleSvc:    peopleSvc,
		fallbackName: fallbackName,
		logger:       logging.WithService(logger, "gmail"),
	}, nil
}

// FetchRecent returns up to maxResults of the newest inbox messages, newest
// first. A failure listing or reading any message fails the whole fetch.
func (c *Client) FetchRecent(ctx context.Context, maxResults int64) ([]triage.Email, error) {
	res, err := c.svc.Messages.List(me).
		LabelIds(inboxLabel).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	emails := make([]triage.Email, 0, len(res.Messages))
	for _, m := range res.Messages {
		msg, err := c.svc.Messages.Get(me, m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", m.Id, err)
		}
		email := MessageToEmail(msg)
		if email.Body == "" {
			c.logger.Debug("message has no decodable plain-text body",
				slog.String(logging.KeyEmailID, msg.Id),
				slog.String(logging.KeyFailure, triage.FailureBodyDecode))
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// MessageToEmail converts a full Gmail message into a triage Email.
func MessageToEmail(msg *gmail.Message) triage.Email {
	subject := HeaderValue(msg.Payload, "Subject")
	if subject == "" {
		subject = DefaultSubject
	}
	sender := HeaderValue(msg.Payload, "From")
	if sender == "" {
		sender = DefaultSender
	}

	return triage.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Sender:   sender,
		Subject:  subject,
		Body:     ExtractBody(msg.Payload),
	}
}

// SendReply sends a plain-text message and returns its id. A non-empty
// threadID keeps the reply in the original conversation.
func (c *Client) SendReply(ctx context.Context, to, subject, body, threadID string) (string, error) {
	raw, err := BuildMessage(to, subject, body)
	if err != nil {
		return "", err
	}

	sent, err := c.svc.Messages.Send(me, &gmail.Message{
		Raw:      raw,
		ThreadId: threadID,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}

// BuildMessage renders an RFC 2822 plain-text message and encodes it as
// base64url for the Gmail API.
func BuildMessage(to, subject, body string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return "", fmt.Errorf("header values must not contain line breaks")
	}

	var b strings.Builder
	b.WriteString("To: ")
	b.WriteString(to)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(subject))
	b.WriteString("\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// encodeRFC2047 encodes a header value according to RFC 2047 when it
// contains non-ASCII characters.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// UserName returns the authenticated account's display name, or the
// fallback name when it cannot be resolved. It never fails.
func (c *Client) UserName(ctx context.Context) string {
	person, err := c.peopleSvc.People.Get("people/me").
		PersonFields("names").
		Context(ctx).
		Do()
	if err != nil {
		c.logger.Warn("resolving account name failed, using fallback",
			slog.String(logging.KeyFailure, triage.FailureCollaborator),
			logging.Err(err))
		return c.fallbackName
	}

	for _, n := range person.Names {
		if name := strings.TrimSpace(n.DisplayName); name != "" {
			return name
		}
	}
	return c.fallbackName
}
