package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"shopbot/internal/domain"
)

// EmailNotifier sends order updates over plain SMTP.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailNotifier{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) CanReach(contact domain.Contact) bool { return contact.Email != "" }

func (e *EmailNotifier) Notify(contact domain.Contact, evt domain.OrderEvent) error {
	if contact.Email == "" {
		return fmt.Errorf("contact has no email address")
	}

	subject, body := renderEmail(evt)
	msg := strings.Join([]string{
		"From: " + e.from,
		"To: " + contact.Email,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}
	if err := smtp.SendMail(addr, auth, e.from, []string{contact.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func renderEmail(evt domain.OrderEvent) (subject, body string) {
	o := evt.Order
	var b strings.Builder

	switch evt.Type {
	case domain.OrderPlaced:
		subject = fmt.Sprintf("Order %s confirmed", o.Number)
		fmt.Fprintf(&b, "Thanks for your order!\n\nOrder %s\n", o.Number)
	case domain.OrderCancelled:
		subject = fmt.Sprintf("Order %s cancelled", o.Number)
		fmt.Fprintf(&b, "Your order %s has been cancelled and the refund initiated.\n", o.Number)
	default:
		subject = fmt.Sprintf("Order %s update", o.Number)
		fmt.Fprintf(&b, "Your order %s is now: %s\n", o.Number, statusLabel(o.Status))
	}

	if len(o.Items) > 0 {
		b.WriteString("\nItems:\n")
		for _, it := range o.Items {
			fmt.Fprintf(&b, "  %dx %s — $%.2f\n", it.Quantity, it.Name, it.Price)
		}
	}
	fmt.Fprintf(&b, "\nTotal: $%.2f\n", o.Total)
	if o.ETA != "" {
		fmt.Fprintf(&b, "Estimated delivery: %s\n", o.ETA)
	}
	return subject, b.String()
}

func statusLabel(s domain.OrderStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
