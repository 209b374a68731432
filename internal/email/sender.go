package email

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *Sender) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return errors.Wrap(s.dialer.DialAndSend(m), "send email")
}

func (s *Sender) SendOneTimeCode(to, code string, ttl time.Duration) error {
	body, err := renderOneTimeCode(code, ttl)
	if err != nil {
		return err
	}
	return s.sendEmail(to, "Your password reset code", body)
}

func (s *Sender) SendPasswordChangedEmail(to, name string) error {
	body, err := render("password_changed.html", map[string]string{"Name": name})
	if err != nil {
		return err
	}
	return s.sendEmail(to, "Your password has been changed", body)
}

func renderOneTimeCode(code string, ttl time.Duration) (string, error) {
	return render("one_time_code.html", map[string]interface{}{
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
}

func render(name string, data interface{}) (string, error) {
	buf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(buf, name, data); err != nil {
		return "", errors.Wrapf(err, "execute template %s", name)
	}
	return buf.String(), nil
}

// LogSender stands in for SMTP when none is configured. It logs the code instead of
// mailing it, so it must only be used for local runs.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log.WithField("component", "email")}
}

func (s *LogSender) SendOneTimeCode(to, code string, ttl time.Duration) error {
	s.log.WithFields(logrus.Fields{"to": to, "code": code, "ttl": ttl.String()}).
		Warn("SMTP not configured, one-time code logged instead of mailed")
	return nil
}

func (s *LogSender) SendPasswordChangedEmail(to, name string) error {
	s.log.WithField("to", to).Info("SMTP not configured, password change notice not mailed")
	return nil
}
