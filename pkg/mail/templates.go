package mail

import (
	"bytes"
	_ "embed"
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

// EmailPlaceholder is rendered when the submitter left the email field empty.
const EmailPlaceholder = "Не указан"

// ContactMailParams are the values substituted into the contact notification.
// Every field is user supplied except SiteName; the HTML template escapes all of them.
type ContactMailParams struct {
	Name     string
	Phone    string
	Email    string
	Message  string
	SiteName string
}

// EmailPlaceholder is exposed to the templates as {{ .EmailPlaceholder }}.
func (ContactMailParams) EmailPlaceholder() string {
	return EmailPlaceholder
}

var (
	contactHTMLTemplate = htmltemplate.New("contact.html").Funcs(sprig.FuncMap())
	contactTextTemplate = texttemplate.New("contact.txt").Funcs(sprig.TxtFuncMap())

	//go:embed templates/contact.html
	contactHTMLTemplateRaw string
	//go:embed templates/contact.txt
	contactTextTemplateRaw string
)

func init() {
	if _, err := contactHTMLTemplate.Parse(contactHTMLTemplateRaw); err != nil {
		panic(err)
	}
	if _, err := contactTextTemplate.Parse(contactTextTemplateRaw); err != nil {
		panic(err)
	}
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(t executor, p any) (string, error) {
	b := bytes.Buffer{}
	err := t.Execute(&b, p)
	return b.String(), err
}

// RenderContactHTML renders the HTML part of the notification.
func RenderContactHTML(p ContactMailParams) (string, error) {
	return render(contactHTMLTemplate, p)
}

// RenderContactText renders the plain-text alternative of the notification.
func RenderContactText(p ContactMailParams) (string, error) {
	return render(contactTextTemplate, p)
}
