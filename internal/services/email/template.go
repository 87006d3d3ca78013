// File: internal/services/email/template.go
package email

import (
	"bytes"
	"fmt"
	"time"

	"github.com/yuin/goldmark"
)

const VerificationSubject = "Your NEU Course Scheduler Verification Code"

// VerificationMessage builds the OTP email. The body is written as markdown;
// the text part is the markdown itself and the HTML part is rendered from it.
func VerificationMessage(to, code string, register bool, ttl time.Duration) (Message, error) {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var intro string
	if register {
		intro = "Welcome to **NEU Course Scheduler**! Use the code below to finish creating your account."
	} else {
		intro = "Use the code below to sign in to **NEU Course Scheduler**."
	}

	body := fmt.Sprintf(`# Verification code

%s

## %s

This code expires in **%d minutes** and can be used once.

If you did not request this code, you can ignore this email.
`, intro, code, minutes)

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(body), &html); err != nil {
		return Message{}, &EmailError{Type: ErrTypeValidation, Message: "render email body", Cause: err}
	}

	return Message{
		To:      to,
		Subject: VerificationSubject,
		Text:    body,
		HTML:    html.String(),
	}, nil
}
