package contact

import (
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/mail"
)

// SubjectPrefix precedes the submitter name in the notification subject.
const SubjectPrefix = "Новая заявка с сайта от "

// Compose builds the notification for a validated submission. The message is
// sent from the relay account to the configured recipient; a parsable
// submitter email becomes the Reply-To address. The body is the HTML
// rendering only, unless the plain-text alternative is enabled.
func Compose(cfg config.Delivery, s Submission) (mail.Message, error) {
	params := mail.ContactMailParams{
		Name:     s.Name,
		Phone:    s.Phone,
		Email:    s.Email,
		Message:  s.Message,
		SiteName: cfg.SiteName,
	}
	if params.SiteName == "" {
		params.SiteName = config.DefaultSiteName
	}

	html, err := mail.RenderContactHTML(params)
	if err != nil {
		return mail.Message{}, fmt.Errorf("render html notification: %w", err)
	}
	var text string
	if cfg.PlainTextAlternative {
		text, err = mail.RenderContactText(params)
		if err != nil {
			return mail.Message{}, fmt.Errorf("render text notification: %w", err)
		}
	}

	return mail.Message{
		From:     cfg.User,
		FromName: params.SiteName,
		To:       []string{cfg.Recipient},
		ReplyTo:  replyTo(s.Email),
		Subject:  SubjectPrefix + headerSafe(s.Name),
		HTML:     html,
		Text:     text,
	}, nil
}

func replyTo(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return ""
	}
	return addr.Address
}

// headerSafe folds line breaks so user input cannot start a new header.
func headerSafe(s string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}
