// Package notify sends run summaries of finished demo runs through go-pkgz/notify channels
// or a custom script. delivery is best-effort and nil-safe.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"

	"github.com/ipkit/royaltydemo/pkg/catalog"
)

// Params holds configuration for creating a notification Service.
// Embedded directly in config.Values, no intermediate mapping needed.
type Params struct {
	Channels      []string
	OnClaim       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Service delivers run summaries to the configured channels.
type Service struct {
	channels   []channel
	script     *scriptChannel
	onClaim    bool
	onComplete bool
	timeout    time.Duration
	hostname   string
	log        logger
}

// channel is a go-pkgz notifier bound to one destination.
type channel struct {
	notifier   ntfy.Notifier
	dest       string
	htmlEscape bool // telegram sends with parseMode=HTML
}

type logger interface {
	Print(format string, args ...any)
}

// defaultTimeout bounds one Send across all channels.
const defaultTimeout = 10 * time.Second

// Result status values.
const (
	StatusClaimed   = "claimed"
	StatusCompleted = "completed"
)

// Result holds the summary of a finished run.
type Result struct {
	Status    string `json:"status"` // "claimed" or "completed"
	RunID     string `json:"run_id"`
	License   string `json:"license"`
	Title     string `json:"title"`
	RevShare  int    `json:"rev_share"`
	Revenue   int    `json:"revenue"`
	Royalties int    `json:"royalties"`
	Remixes   int    `json:"remixes"`
	Duration  string `json:"duration"`
}

// New builds a Service for the channels named in p.Channels.
// no channels gives nil, nil; Send on a nil Service does nothing.
// a misconfigured channel is an error, except telegram: its token check calls the API,
// so an unreachable API disables the channel with a warning.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // no channels configured, Send is nil-safe
	}

	svc := &Service{onClaim: p.OnClaim, onComplete: p.OnComplete, timeout: defaultTimeout, log: log}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}
	svc.hostname, _ = os.Hostname()
	if svc.hostname == "" {
		svc.hostname = "unknown"
	}

	for _, name := range p.Channels {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "custom" {
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.script = &scriptChannel{path: p.CustomScript}
			continue
		}

		build, ok := channelBuilders[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", name)
		}
		chs, err := build(p)
		var unavailable *unavailableError
		switch {
		case errors.As(err, &unavailable):
			log.Print("[WARN] %s channel disabled: %s", name, unavailable.msg)
			continue
		case err != nil:
			return nil, fmt.Errorf("%s channel: %w", name, err)
		}
		svc.channels = append(svc.channels, chs...)
	}

	if len(svc.channels) == 0 && svc.script == nil {
		log.Print("[WARN] all notification channels were disabled due to initialization errors")
	}
	return svc, nil
}

// unavailableError marks a channel that is configured correctly but can't be reached.
type unavailableError struct{ msg string }

func (e *unavailableError) Error() string { return e.msg }

// channelBuilders makes go-pkgz channels by config name.
var channelBuilders = map[string]func(Params) ([]channel, error){
	"telegram": buildTelegram,
	"email":    buildEmail,
	"slack":    buildSlack,
	"webhook":  buildWebhooks,
}

// Send delivers r to every channel if its status is enabled. failures are logged, never returned.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil {
		return
	}

	switch r.Status {
	case StatusClaimed:
		if !s.onClaim {
			return
		}
	case StatusCompleted:
		if !s.onComplete {
			return
		}
	default:
		return
	}

	msg := s.formatMessage(r)

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for _, ch := range s.channels {
		text := msg
		if ch.htmlEscape {
			text = html.EscapeString(msg)
		}
		if err := ch.notifier.Send(sendCtx, ch.dest, text); err != nil {
			s.log.Print("[WARN] notification failed for %s: %v", ch.notifier, err)
		}
	}

	if s.script != nil {
		if err := s.script.send(sendCtx, r); err != nil {
			s.log.Print("[WARN] custom notification failed: %v", err)
		}
	}
}

// formatMessage creates a plain text notification message from the result.
func (s *Service) formatMessage(r Result) string {
	var b strings.Builder

	if r.Status == StatusClaimed {
		fmt.Fprintf(&b, "royaltydemo royalties claimed on %s\n", s.hostname)
	} else {
		fmt.Fprintf(&b, "royaltydemo run completed on %s\n", s.hostname)
	}

	b.WriteString("\n")

	if r.Title != "" {
		fmt.Fprintf(&b, "license:   %s\n", r.Title)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "run:       %s\n", r.RunID)
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "duration:  %s\n", r.Duration)
	}
	if r.Revenue > 0 {
		fmt.Fprintf(&b, "revenue:   %s\n", catalog.Money(r.Revenue))
		fmt.Fprintf(&b, "royalties: %s (%d%% share)\n", catalog.Money(r.Royalties), r.RevShare)
	}
	if r.Remixes > 0 {
		fmt.Fprintf(&b, "remixes:   %d\n", r.Remixes)
	}

	return b.String()
}

// dialTelegram verifies the bot token against the API; tests replace it.
var dialTelegram = func(token string) (ntfy.Notifier, error) {
	return ntfy.NewTelegram(ntfy.TelegramParams{Token: token})
}

func buildTelegram(p Params) ([]channel, error) {
	if p.TelegramToken == "" {
		return nil, errors.New("notify_telegram_token is required")
	}
	if p.TelegramChat == "" {
		return nil, errors.New("notify_telegram_chat is required")
	}
	tg, err := dialTelegram(p.TelegramToken)
	if err != nil {
		return nil, &unavailableError{msg: strings.ReplaceAll(err.Error(), p.TelegramToken, "[REDACTED]")}
	}
	return []channel{{notifier: tg, dest: "telegram:" + p.TelegramChat + "?parseMode=HTML", htmlEscape: true}}, nil
}

func buildEmail(p Params) ([]channel, error) {
	switch {
	case p.SMTPHost == "":
		return nil, errors.New("notify_smtp_host is required")
	case p.EmailFrom == "":
		return nil, errors.New("notify_email_from is required")
	case len(p.EmailTo) == 0:
		return nil, errors.New("notify_email_to is required")
	}

	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})
	q := url.Values{}
	q.Set("from", p.EmailFrom)
	q.Set("subject", "royaltydemo run summary")
	return []channel{{notifier: em, dest: "mailto:" + strings.Join(p.EmailTo, ",") + "?" + q.Encode()}}, nil
}

func buildSlack(p Params) ([]channel, error) {
	switch {
	case p.SlackToken == "":
		return nil, errors.New("notify_slack_token is required")
	case p.SlackChannel == "":
		return nil, errors.New("notify_slack_channel is required")
	}
	return []channel{{notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}}, nil
}

// buildWebhooks shares one notifier between all configured urls.
func buildWebhooks(p Params) ([]channel, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]channel, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, channel{notifier: wh, dest: u})
	}
	return res, nil
}
