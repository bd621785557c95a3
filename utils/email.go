package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
)

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Mailer sends transactional mail through the ZeptoMail HTTP API.
type Mailer struct {
	APIURL string // e.g. https://api.zeptomail.com/v1.1/email
	APIKey string // e.g. Zoho-enczapikey xxxxx
	From   string
	Client *http.Client
	Log    *slog.Logger
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.APIURL != "" && m.APIKey != "" && m.From != ""
}

// SendEmail sends an HTML email.
func (m *Mailer) SendEmail(ctx context.Context, to, toName, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("missing required email config")
	}

	payload := emailRequest{
		From: emailAddress{Address: m.From},
		To: []toRecipient{
			{Email: emailWithName{Address: to, Name: toName}},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.APIKey)

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	m.logger().Info("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// SponsorshipSubmitted tells an organizer that a sponsor pledged support.
// Failures are logged, never returned: the sponsorship is already recorded.
func (m *Mailer) SponsorshipSubmitted(ctx context.Context, organizer *models.User, ev *models.Event, sp *models.Sponsorship) {
	if !m.Enabled() || !organizer.Preferences.Notifications.SponsorshipUpdates {
		return
	}

	sponsor := sp.CompanyName
	if sponsor == "" {
		sponsor = sp.ContactEmail
	}
	display := rules.Currencies.Resolve(organizer.Preferences.Currency)
	body := fmt.Sprintf(
		"<p>%s offered a <b>%s</b> sponsorship for <b>%s</b>.</p><p>Amount: %s</p><p>Review it in the organizer dashboard.</p>",
		html.EscapeString(sponsor),
		html.EscapeString(string(sp.SponsorshipType)),
		html.EscapeString(ev.Title),
		rules.Currencies.Format(sp.Amount, display),
	)

	if err := m.SendEmail(ctx, organizer.Email, organizer.Name, "New sponsorship for "+ev.Title, body); err != nil {
		m.logger().Error("sponsorship email failed",
			slog.String("event_id", ev.ID.Hex()),
			slog.String("error", err.Error()),
		)
	}
}

func (m *Mailer) logger() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return slog.Default()
}
