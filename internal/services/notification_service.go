// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/shoplane/shoplane-backend/internal/config"
	"github.com/shoplane/shoplane-backend/internal/models"
)

// NotificationService sends transactional email. It is an external
// collaborator of the order flow: failures are logged, never propagated, an
// undelivered confirmation does not affect the order.
type NotificationService struct {
	config *config.Config
}

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{config: config}
}

const orderConfirmationTemplate = `
<h2>Thank you for your order, {{.Name}}!</h2>
<p>Order <strong>{{.OrderID}}</strong> was placed successfully.</p>
<table>
{{range .Items}}
	<tr>
		<td>{{.Title}}</td>
		<td>{{.Quantity}} &times; Rs.{{printf "%.2f" .Price}}</td>
	</tr>
{{end}}
</table>
<p>Shipping to: {{.ShippingAddress}}</p>
<p>Payment method: {{.PaymentMethod}}</p>
<p><strong>Total: Rs.{{printf "%.2f" .TotalPrice}}</strong></p>
`

func (s *NotificationService) SendOrderConfirmation(user *models.User, order *models.Order) {
	data := map[string]interface{}{
		"Name":            user.DisplayName,
		"OrderID":         order.ID.String(),
		"Items":           order.Items,
		"ShippingAddress": order.ShippingAddress,
		"PaymentMethod":   string(order.PaymentMethod),
		"TotalPrice":      order.TotalPrice,
	}

	subject := "Your Shoplane order confirmation"
	body, err := s.renderTemplate(orderConfirmationTemplate, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render order confirmation email")
		return
	}

	if err := s.sendEmail(user.Email, subject, body); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to send order confirmation email")
	}
}

func (s *NotificationService) renderTemplate(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func (s *NotificationService) sendEmail(to, subject, htmlBody string) error {
	if s.config.Email.SMTPUsername == "" {
		// No SMTP configured (development); log instead of sending.
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email sending skipped, SMTP not configured")
		return nil
	}

	auth := smtp.PlainAuth(
		"",
		s.config.Email.SMTPUsername,
		s.config.Email.SMTPPassword,
		s.config.Email.SMTPHost,
	)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, htmlBody,
	))

	addr := s.config.Email.SMTPHost + ":" + s.config.Email.SMTPPort
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}
