package mail

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const passwordResetSubject = "Reset your Yapplr password"

var passwordResetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Hi {{.Username}},</p>
  <p>We received a request to reset the password for your Yapplr account.</p>
  <p><a href="{{.Link}}">Reset your password</a></p>
  <p>This link expires in 1 hour. If you did not ask for a reset, you can ignore this email.</p>
</body>
</html>
`))

var passwordResetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(`Hi {{.Username}},

We received a request to reset the password for your Yapplr account.
Open this link to choose a new password:

{{.Link}}

This link expires in 1 hour. If you did not ask for a reset, you can ignore this email.
`))

// RenderPasswordReset builds the reset email. The caller fills in To.
func RenderPasswordReset(link, username string) (Message, error) {
	data := struct {
		Link     string
		Username string
	}{Link: link, Username: username}

	var html, text bytes.Buffer
	if err := passwordResetHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := passwordResetText.Execute(&text, data); err != nil {
		return Message{}, err
	}
	return Message{Subject: passwordResetSubject, HTML: html.String(), Text: text.String()}, nil
}
