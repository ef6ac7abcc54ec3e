package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/observability"
	"github.com/noah-isme/risetutor-api/pkg/mailer"
)

const (
	templateOTP     = "otp"
	templateWelcome = "welcome"
)

var otpHTML = template.Must(template.New(templateOTP).Parse(`<p>Dear {{.Name}},</p>
<p>Your RiseTutor admission verification code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in {{.Minutes}} minutes. Do not share it with anyone.</p>`))

var welcomeHTML = template.Must(template.New(templateWelcome).Parse(`<p>Dear {{.Name}},</p>
<p>Welcome to RiseTutor. Your admission to standard {{.Standard}} is confirmed.</p>
<p>Registration ID: <strong>{{.RegistrationID}}</strong><br>Password: <strong>{{.Password}}</strong></p>
<p>Use your registered email and this password to sign in to the student portal.</p>`))

// AdmissionNotifier sends the admission funnel emails.
type AdmissionNotifier interface {
	SendOTP(ctx context.Context, admission models.TemporaryAdmission, code string, ttl time.Duration) error
	SendWelcome(ctx context.Context, student models.Student, password string) error
}

type mailNotifier struct {
	sender mailer.Sender
	logger zerolog.Logger
}

// NewMailNotifier renders admission emails and hands them to the sender.
func NewMailNotifier(sender mailer.Sender, logger zerolog.Logger) AdmissionNotifier {
	return &mailNotifier{
		sender: sender,
		logger: logger.With().Str("component", "admission_notifier").Logger(),
	}
}

func (n *mailNotifier) SendOTP(ctx context.Context, admission models.TemporaryAdmission, code string, ttl time.Duration) error {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	data := struct {
		Name    string
		Code    string
		Minutes int
	}{admission.StudentName, code, minutes}

	html, err := render(otpHTML, data)
	if err != nil {
		return err
	}

	return n.deliver(ctx, templateOTP, mailer.Message{
		ToName:   admission.StudentName,
		ToEmail:  admission.Email,
		Subject:  "Your RiseTutor verification code",
		Text:     fmt.Sprintf("Your RiseTutor admission verification code is %s. It expires in %d minutes.", code, minutes),
		HTML:     html,
		Category: "admission-otp",
	})
}

func (n *mailNotifier) SendWelcome(ctx context.Context, student models.Student, password string) error {
	data := struct {
		Name           string
		Standard       string
		RegistrationID string
		Password       string
	}{student.StudentName, student.Standard, student.RegistrationID, password}

	html, err := render(welcomeHTML, data)
	if err != nil {
		return err
	}

	return n.deliver(ctx, templateWelcome, mailer.Message{
		ToName:  student.StudentName,
		ToEmail: student.Email,
		Subject: "Welcome to RiseTutor",
		Text: fmt.Sprintf("Your admission is confirmed. Registration ID: %s. Password: %s.",
			student.RegistrationID, password),
		HTML:     html,
		Category: "admission-welcome",
	})
}

func (n *mailNotifier) deliver(ctx context.Context, name string, msg mailer.Message) error {
	if err := n.sender.Send(ctx, msg); err != nil {
		observability.EmailDeliveries().WithLabelValues(name, "failed").Inc()
		n.logger.Warn().Err(err).Str("template", name).Str("email", maskEmail(msg.ToEmail)).Msg("email delivery failed")
		return err
	}
	observability.EmailDeliveries().WithLabelValues(name, "sent").Inc()
	return nil
}

func render(tpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
