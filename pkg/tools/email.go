package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DraftEmailName = "draft_email"
	SendEmailName  = "send_email_smtp"

	DefaultEmailSubject = "Request for information"

	emailFormatExample = "to: contact@example.com\nsubject: Internship application\nbody: Hello, ..."
)

// Mailer delivers plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailFields holds the parsed to/subject/body triple. Empty means absent.
type EmailFields struct {
	To      string
	Subject string
	Body    string
}

var fieldPrefixes = []struct {
	field  string
	prefix string
}{
	{"to", "to:"},
	{"to", "à:"},
	{"subject", "subject:"},
	{"subject", "objet:"},
	{"body", "body:"},
	{"body", "corps:"},
}

var quoteReplacer = strings.NewReplacer("\r", "", "“", "\"", "”", "\"", "’", "'", `\n`, "\n")

// ParseEmailFields reads line-prefixed fields case-insensitively. Lines
// after "body:" continue the body until another field prefix appears.
func ParseEmailFields(input string) EmailFields {
	text := strings.Trim(strings.TrimSpace(quoteReplacer.Replace(input)), "\"'`")

	var f EmailFields
	var body []string
	inBody := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			if inBody {
				body = append(body, "")
			}
			continue
		}

		field, value, ok := matchPrefix(line)
		if !ok {
			if inBody {
				body = append(body, line)
			}
			continue
		}

		inBody = false
		switch field {
		case "to":
			f.To = value
		case "subject":
			f.Subject = value
		case "body":
			inBody = true
			body = body[:0]
			if value != "" {
				body = append(body, value)
			}
		}
	}
	f.Body = strings.TrimSpace(strings.Join(body, "\n"))
	return f
}

func matchPrefix(line string) (field, value string, ok bool) {
	low := strings.ToLower(line)
	for _, p := range fieldPrefixes {
		if strings.HasPrefix(low, p.prefix) {
			return p.field, strings.TrimSpace(line[len(p.prefix):]), true
		}
	}
	return "", "", false
}

// Missing lists absent required fields in to, subject, body order.
func (f EmailFields) Missing() []string {
	var missing []string
	if f.To == "" {
		missing = append(missing, "to")
	}
	if f.Subject == "" {
		missing = append(missing, "subject")
	}
	if f.Body == "" {
		missing = append(missing, "body")
	}
	return missing
}

// Format renders the fields in the same line-prefixed format the send tool parses.
func (f EmailFields) Format() string {
	var b strings.Builder
	if f.To != "" {
		fmt.Fprintf(&b, "to: %s\n", f.To)
	}
	fmt.Fprintf(&b, "subject: %s\n", f.Subject)
	fmt.Fprintf(&b, "body: %s", f.Body)
	return b.String()
}

// DefaultEmailBody is the polite placeholder used when a draft has no body.
func DefaultEmailBody(signature string) string {
	body := "Hello,\n\nI am reaching out regarding ...\n\nCould you please confirm ...?\n\nBest regards,"
	if signature != "" {
		body += "\n" + signature
	}
	return body
}

// NewDraftEmail returns the draft_email tool. It never sends anything.
func NewDraftEmail(signature string) Tool {
	return NewFunc(DraftEmailName,
		"Drafts a professional email. Accepts free text or 'to:/subject:/body:' lines "+
			"and returns the to/subject/body triple ready for send_email_smtp.",
		func(_ context.Context, input string) Result {
			f := ParseEmailFields(input)
			if f.Subject == "" {
				f.Subject = DefaultEmailSubject
			}
			if f.Body == "" {
				f.Body = DefaultEmailBody(signature)
			}
			return OK(f.Format())
		})
}

type sendEmail struct {
	mailer   Mailer
	validate *validator.Validate
}

// NewSendEmail returns the send_email_smtp tool backed by mailer.
func NewSendEmail(mailer Mailer) Tool {
	return &sendEmail{mailer: mailer, validate: validator.New()}
}

func (t *sendEmail) Name() string { return SendEmailName }

func (t *sendEmail) Description() string {
	return "Sends an email over SMTP. Input MUST be lines 'to: <address>', 'subject: <subject>', 'body: <text>'. " +
		"Draft with draft_email first."
}

func (t *sendEmail) Invoke(ctx context.Context, input string) Result {
	f := ParseEmailFields(input)
	if missing := f.Missing(); len(missing) > 0 {
		return Fail(fmt.Sprintf("Error: email not sent, missing field(s): %s. Expected format:\n%s",
			strings.Join(missing, ", "), emailFormatExample))
	}

	if err := t.validate.Var(f.To, "required,email"); err != nil {
		return Fail(fmt.Sprintf("Error: email not sent, invalid recipient address %q.", f.To))
	}

	if err := t.mailer.Send(ctx, f.To, f.Subject, f.Body); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Fail(fmt.Sprintf("Error: email to %s was not sent: the mail server did not answer in time.", f.To))
		}
		return Fail(fmt.Sprintf("Error: email to %s was not sent: %v", f.To, err))
	}
	return OK(fmt.Sprintf("Email sent to %s (subject: %s).", f.To, f.Subject))
}
