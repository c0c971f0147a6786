package triage

import (
	"regexp"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// SignatureOpener is the first line of the canonical signature block.
	SignatureOpener = "Best Regards,"

	// UserNamePlaceholder is the literal token the model uses when it does
	// not know who is replying.
	UserNamePlaceholder = "Your Name"

	// webInsertLead introduces a web snippet inside a reply.
	webInsertLead = "Additionally, based on the latest information from the web, here are some insights:"
)

var (
	greetingPattern    = regexp.MustCompile(`Dear\s+.*?,`)
	placeholderPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	signaturePattern   = regexp.MustCompile(`(?ims)^[ \t]*best\s+regards.*\z`)

	// signatureLines are the lines InsertWebSnippet treats as the start of
	// a signature, compared trimmed and lower-cased.
	signatureLines = []string{"best regards,", "thanks,"}
)

// Compose turns a raw model reply into the final text sent to the sender:
// personalisation first, then the optional web snippet before the signature.
func Compose(rawReply, senderName, userName string, webSnippet fn.Option[string]) string {
	reply := Personalize(rawReply, senderName, userName)
	return InsertWebSnippet(reply, webSnippet.UnwrapOr(""))
}

// Personalize rewrites the greeting to address the sender, unwraps
// [placeholder] markup, drops any signature the model wrote and appends the
// canonical one for userName. A signature starts at a line beginning with
// "Best Regards"; the phrase inside a sentence is left alone.
func Personalize(reply, senderName, userName string) string {
	reply = greetingPattern.ReplaceAllLiteralString(reply, "Dear "+senderName+",")
	reply = placeholderPattern.ReplaceAllString(reply, "$1")
	reply = signaturePattern.ReplaceAllString(reply, "")

	reply = strings.TrimSpace(reply)
	signature := SignatureOpener + "\n" + userName
	if reply == "" {
		return signature
	}
	return reply + "\n\n" + signature
}

// InsertWebSnippet splices the snippet paragraph in front of the last
// signature line, framed by exactly one blank line on each side. Without a
// signature the paragraph is appended. An empty snippet leaves reply as is.
func InsertWebSnippet(reply, snippet string) string {
	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return reply
	}
	insert := webInsertLead + "\n" + snippet

	lines := strings.Split(strings.TrimSpace(reply), "\n")
	sigIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if isSignatureLine(lines[i]) {
			sigIdx = i
			break
		}
	}

	if sigIdx < 0 {
		body := strings.TrimRight(reply, " \t\r\n")
		if body == "" {
			return insert
		}
		return body + "\n\n" + insert
	}

	body := strings.TrimRight(strings.Join(lines[:sigIdx], "\n"), " \t\r\n")
	signature := strings.Join(lines[sigIdx:], "\n")
	if body == "" {
		return insert + "\n\n" + signature
	}
	return body + "\n\n" + insert + "\n\n" + signature
}

func isSignatureLine(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	for _, s := range signatureLines {
		if l == s {
			return true
		}
	}
	return false
}

// ReplacePlaceholderName swaps the literal user-name placeholder for the
// resolved account name.
func ReplacePlaceholderName(reply, userName string) string {
	return strings.ReplaceAll(reply, UserNamePlaceholder, userName)
}
