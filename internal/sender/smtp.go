package sender

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/siddarth16/coldscale/internal/models"
)

// SMTP submits emails through a real relay with PLAIN auth. Used when
// the operator configures live mode; campaign test mode still routes to
// the simulated sender.
type SMTP struct {
	settings *models.SMTPSettings
	logger   *slog.Logger
}

// NewSMTP creates a live SMTP sender over the given account settings.
func NewSMTP(settings *models.SMTPSettings, logger *slog.Logger) *SMTP {
	return &SMTP{
		settings: settings,
		logger:   logger.With("component", "smtp_sender"),
	}
}

// Send submits one email. The context deadline is approximated through
// the dial timeout; an in-flight SMTP exchange is not aborted.
func (s *SMTP) Send(ctx context.Context, email *Email) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageID := fmt.Sprintf("%s@%s", uuid.New().String(), s.settings.Host)
	data := s.buildMessage(email, messageID)

	auth := sasl.NewPlainClient("", s.settings.Username, s.settings.Password)
	addr := s.settings.Addr()

	var err error
	if s.settings.Secure {
		err = smtp.SendMailTLS(addr, auth, s.settings.FromEmail, []string{email.To}, bytes.NewReader(data))
	} else {
		err = smtp.SendMail(addr, auth, s.settings.FromEmail, []string{email.To}, bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("smtp submission failed: %w", err)
	}

	s.logger.Info("email submitted", "to", email.To, "message_id", messageID)
	return &Result{MessageID: messageID, Timestamp: time.Now()}, nil
}

// buildMessage assembles an RFC 5322 text/plain message.
func (s *SMTP) buildMessage(email *Email, messageID string) []byte {
	var buf bytes.Buffer

	from := s.settings.FromEmail
	if s.settings.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.settings.FromName), s.settings.FromEmail)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s>\r\n", messageID)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	buf.WriteString("\r\n")

	return buf.Bytes()
}
