// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package notify sends operator notification emails through Resend.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/resend/resend-go/v2"

	"github.com/tomtom215/replayrhythms/internal/config"
)

// VisitorCookie is set by the web app when someone opens the resume link.
const VisitorCookie = "resume_visitor_data"

var (
	// ErrNotConfigured is returned when NOTIFICATION_EMAIL is not set.
	ErrNotConfigured = errors.New("Notification email not configured") //nolint:staticcheck // user-facing message

	// ErrInvalidVisitorData is returned for a cookie that is not valid JSON.
	ErrInvalidVisitorData = errors.New("Invalid visitor data") //nolint:staticcheck // user-facing message
)

// VisitorData is the JSON stored in VisitorCookie.
type VisitorData struct {
	Timestamp string `json:"timestamp"`
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
	Path      string `json:"path"`
}

// ParseVisitorCookie decodes a cookie value, which may be URL-encoded.
func ParseVisitorCookie(value string) (*VisitorData, error) {
	if unescaped, err := url.QueryUnescape(value); err == nil {
		value = unescaped
	}
	var v VisitorData
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVisitorData, err)
	}
	return &v, nil
}

// Email is one outbound message.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers an email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, e *Email) (string, error)
}

type resendSender struct {
	client *resend.Client
}

func (s *resendSender) Send(ctx context.Context, e *Email) (string, error) {
	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		Html:    e.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}

// NewResendSender returns a Sender backed by the Resend API.
func NewResendSender(apiKey string) Sender {
	return &resendSender{client: resend.NewClient(apiKey)}
}

// Notifier sends resume visit notifications.
type Notifier struct {
	sender Sender
	to     string
	from   string
}

// NewNotifier creates a notifier from configuration. Without a notification
// address every send fails with ErrNotConfigured.
func NewNotifier(cfg *config.NotifyConfig) *Notifier {
	var sender Sender
	if cfg.ResendAPIKey != "" {
		sender = NewResendSender(cfg.ResendAPIKey)
	}
	return newNotifier(sender, cfg.NotificationEmail, cfg.From)
}

func newNotifier(sender Sender, to, from string) *Notifier {
	return &Notifier{sender: sender, to: to, from: from}
}

// Configured reports whether notifications can be sent.
func (n *Notifier) Configured() bool {
	return n.sender != nil && n.to != ""
}

var visitTemplate = template.Must(template.New("visit").Parse(`<h2>Resume Link Visit</h2>
<p><strong>Time:</strong> {{.Visitor.Timestamp}}</p>
<p><strong>IP:</strong> {{.Visitor.IP}}</p>
<p><strong>User Agent:</strong> {{.Visitor.UserAgent}}</p>
<p><strong>Referrer:</strong> {{or .Visitor.Referrer "Direct"}}</p>
<p><strong>Path:</strong> {{.Visitor.Path}}</p>
{{- if .UserEmail}}
<p><strong>Logged in as:</strong> {{.UserEmail}}</p>
{{- end}}
`))

// SendResumeVisit emails the visit details. userEmail is optional.
func (n *Notifier) SendResumeVisit(ctx context.Context, v *VisitorData, userEmail string) (string, error) {
	if !n.Configured() {
		return "", ErrNotConfigured
	}

	var buf bytes.Buffer
	if err := visitTemplate.Execute(&buf, struct {
		Visitor   *VisitorData
		UserEmail string
	}{v, userEmail}); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}

	subject := "Resume Link Visit"
	if strings.TrimSpace(userEmail) != "" {
		subject += " - User Logged In"
	}
	return n.sender.Send(ctx, &Email{
		From:    n.from,
		To:      []string{n.to},
		Subject: subject,
		HTML:    buf.String(),
	})
}
