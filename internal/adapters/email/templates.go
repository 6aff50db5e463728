package email

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"tutorcenter/internal/adapters/markdown"
)

// Bodies are written in markdown; the text part is the markdown itself and
// the HTML part is its rendering.
var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`# Welcome to {{.Center}}, {{.Name}}

Your {{.Role}} account is ready. Sign in at any time:

[{{.LoginURL}}]({{.LoginURL}})

If you did not create this account, reply to this e-mail and we will close it.
`))

	resetTmpl = template.Must(template.New("reset").Parse(`# Reset your {{.Center}} password

Someone asked to reset the password for this address. Follow the link below
within {{.Validity}} to choose a new one:

[Reset password]({{.Link}})

If it was not you, ignore this e-mail; your password stays unchanged.
`))
)

// Branding configures the product name and public base URL used in mail.
type Branding struct {
	Center  string // e.g. "Bright Tutoring Center"
	BaseURL string // e.g. "https://tutoring.example.com"
}

type welcomeData struct {
	Center, Name, Role, LoginURL string
}

type resetData struct {
	Center, Link, Validity string
}

// WelcomeMessage builds the registration welcome e-mail.
func WelcomeMessage(b Branding, to, name, role string) (Message, error) {
	return compose(welcomeTmpl, to, "Welcome to "+b.Center, welcomeData{
		Center:   b.Center,
		Name:     name,
		Role:     role,
		LoginURL: b.BaseURL + "/login",
	})
}

// PasswordResetMessage builds the reset-link e-mail for token.
func PasswordResetMessage(b Branding, to, token string, validity time.Duration) (Message, error) {
	return compose(resetTmpl, to, "Reset your password", resetData{
		Center:   b.Center,
		Link:     b.BaseURL + "/reset-password?token=" + token,
		Validity: validity.String(),
	})
}

func compose(t *template.Template, to, subject string, data any) (Message, error) {
	var src bytes.Buffer
	if err := t.Execute(&src, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", t.Name(), err)
	}
	html, err := markdown.Render(src.String())
	if err != nil {
		return Message{}, fmt.Errorf("render %s markdown: %w", t.Name(), err)
	}
	return Message{
		To:      []string{to},
		Subject: subject,
		Text:    src.String(),
		HTML:    html,
	}, nil
}
