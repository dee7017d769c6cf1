package models

import (
	"fmt"
	"regexp"
)

// SMTPSettings holds the outbound mail account used in live mode.
type SMTPSettings struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Secure    bool   `json:"secure"` // implicit TLS instead of STARTTLS
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether addr looks like an email address.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// Validate returns every problem with the settings as a human-readable
// string. An empty slice means the settings are usable.
func (s *SMTPSettings) Validate() []string {
	var errs []string
	if s.Host == "" {
		errs = append(errs, "SMTP host is required")
	}
	if s.Port == 0 {
		errs = append(errs, "SMTP port is required")
	} else if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, "SMTP port must be between 1 and 65535")
	}
	if s.Username == "" {
		errs = append(errs, "SMTP username is required")
	}
	if s.Password == "" {
		errs = append(errs, "SMTP password is required")
	}
	if s.FromEmail == "" {
		errs = append(errs, "From email is required")
	} else if !ValidEmail(s.FromEmail) {
		errs = append(errs, "From email must be a valid email address")
	}
	if s.FromName == "" {
		errs = append(errs, "From name is required")
	}
	return errs
}

// Addr returns the host:port dial address.
func (s *SMTPSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
