package gmail

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

const mimeTextPlain = "text/plain"

// ExtractBody returns the plain-text body of a message payload: the first
// text/plain part of a multipart message, or the body of a single-part
// message. The result is trimmed. Anything that cannot be located or
// decoded yields "".
func ExtractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) > 0 {
		part := firstPlainPart(payload.Parts)
		if part == nil {
			return ""
		}
		return decodePartBody(part)
	}

	return decodePartBody(payload)
}

// firstPlainPart walks parts depth first and returns the first text/plain
// part that carries inline data.
func firstPlainPart(parts []*gmail.MessagePart) *gmail.MessagePart {
	for _, p := range parts {
		if p == nil {
			continue
		}
		if strings.EqualFold(p.MimeType, mimeTextPlain) && p.Body != nil && p.Body.Data != "" {
			return p
		}
		if found := firstPlainPart(p.Parts); found != nil {
			return found
		}
	}
	return nil
}

func decodePartBody(part *gmail.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data, ok := decodeBase64URL(part.Body.Data)
	if !ok || !utf8.Valid(data) {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// decodeBase64URL decodes Gmail's base64url data, which may or may not be
// padded. Standard alphabet input is accepted as well.
func decodeBase64URL(s string) ([]byte, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if data, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return data, true
	}
	if data, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return data, true
	}
	return nil, false
}

// HeaderValue returns the first header called name (case-insensitive), or "".
func HeaderValue(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
