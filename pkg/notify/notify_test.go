package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	ntfy "github.com/go-pkgz/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNotifier implements ntfy.Notifier for testing.
type mockNotifier struct {
	schema string
	mu     sync.Mutex
	calls  []sendCall
	err    error
}

type sendCall struct {
	dest string
	text string
}

func (m *mockNotifier) Send(_ context.Context, dest, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sendCall{dest: dest, text: text})
	return m.err
}

func (m *mockNotifier) Schema() string { return m.schema }
func (m *mockNotifier) String() string { return "mock-" + m.schema }

func (m *mockNotifier) getCalls() []sendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]sendCall, len(m.calls))
	copy(res, m.calls)
	return res
}

// mockLogger captures log output for testing.
type mockLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *mockLogger) Print(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func (l *mockLogger) getMsgs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]string, len(l.msgs))
	copy(res, l.msgs)
	return res
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want string
	}{
		{"unknown channel", Params{Channels: []string{"pager"}}, `unknown notification channel: "pager"`},
		{"webhook without urls", Params{Channels: []string{"webhook"}}, "notify_webhook_urls is required"},
		{"email without host", Params{Channels: []string{"email"}}, "notify_smtp_host is required"},
		{"email without from", Params{Channels: []string{"email"}, SMTPHost: "smtp.example.com"},
			"notify_email_from is required"},
		{"email without recipients", Params{Channels: []string{"email"}, SMTPHost: "smtp.example.com",
			EmailFrom: "demo@example.com"}, "notify_email_to is required"},
		{"slack without token", Params{Channels: []string{"slack"}}, "notify_slack_token is required"},
		{"slack without channel", Params{Channels: []string{"slack"}, SlackToken: "xoxb-1"},
			"notify_slack_channel is required"},
		{"telegram without token", Params{Channels: []string{"telegram"}}, "notify_telegram_token is required"},
		{"telegram without chat", Params{Channels: []string{"telegram"}, TelegramToken: "bot"},
			"notify_telegram_chat is required"},
		{"custom without script", Params{Channels: []string{"custom"}}, "notify_custom_script is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := New(tc.p, &mockLogger{})
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("no channels gives nil service", func(t *testing.T) {
		svc, err := New(Params{OnClaim: true}, &mockLogger{})
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("all channels", func(t *testing.T) {
		svc, err := New(Params{
			Channels:     []string{"email", " Slack ", "WEBHOOK", "custom"},
			OnClaim:      true,
			TimeoutMs:    2500,
			SMTPHost:     "smtp.example.com",
			SMTPPort:     587,
			EmailFrom:    "demo@example.com",
			EmailTo:      []string{"a@example.com", "b@example.com"},
			SlackToken:   "xoxb-1",
			SlackChannel: "royalties",
			WebhookURLs:  []string{"https://a.example.com", "https://b.example.com"},
			CustomScript: "/usr/local/bin/notify.sh",
		}, &mockLogger{})
		require.NoError(t, err)
		require.NotNil(t, svc)

		dests := make([]string, 0, len(svc.channels))
		for _, ch := range svc.channels {
			dests = append(dests, ch.dest)
		}
		assert.Equal(t, []string{
			"mailto:a@example.com,b@example.com?from=demo%40example.com&subject=royaltydemo+run+summary",
			"slack:royalties",
			"https://a.example.com",
			"https://b.example.com",
		}, dests)
		require.NotNil(t, svc.script)
		assert.Equal(t, "/usr/local/bin/notify.sh", svc.script.path)
		assert.True(t, svc.onClaim)
		assert.False(t, svc.onComplete)
		assert.Equal(t, 2500*time.Millisecond, svc.timeout)
		assert.NotEmpty(t, svc.hostname)
	})

	t.Run("default timeout", func(t *testing.T) {
		svc, err := New(Params{Channels: []string{"webhook"}, WebhookURLs: []string{"https://example.com"}}, &mockLogger{})
		require.NoError(t, err)
		assert.Equal(t, defaultTimeout, svc.timeout)
	})

	t.Run("unreachable telegram is disabled with redacted warning", func(t *testing.T) {
		orig := dialTelegram
		dialTelegram = func(token string) (ntfy.Notifier, error) {
			return nil, fmt.Errorf("request to https://api.telegram.org/bot%s/getMe failed: 401", token)
		}
		t.Cleanup(func() { dialTelegram = orig })

		log := &mockLogger{}
		svc, err := New(Params{
			Channels:      []string{"telegram"},
			TelegramToken: "123456:ABC-secret",
			TelegramChat:  "-100",
		}, log)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Empty(t, svc.channels)

		msgs := log.getMsgs()
		require.Len(t, msgs, 2)
		assert.Contains(t, msgs[0], "[WARN] telegram channel disabled")
		assert.Contains(t, msgs[0], "[REDACTED]")
		assert.NotContains(t, msgs[0], "123456:ABC-secret")
		assert.Contains(t, msgs[1], "all notification channels were disabled")
	})

	t.Run("reachable telegram escapes html", func(t *testing.T) {
		orig := dialTelegram
		dialTelegram = func(string) (ntfy.Notifier, error) { return &mockNotifier{schema: "telegram"}, nil }
		t.Cleanup(func() { dialTelegram = orig })

		svc, err := New(Params{Channels: []string{"telegram"}, TelegramToken: "t", TelegramChat: "-100"}, &mockLogger{})
		require.NoError(t, err)
		require.Len(t, svc.channels, 1)
		assert.Equal(t, "telegram:-100?parseMode=HTML", svc.channels[0].dest)
		assert.True(t, svc.channels[0].htmlEscape)
	})
}

func newTestService(mocks ...channel) (*Service, *mockLogger) {
	log := &mockLogger{}
	return &Service{
		channels:   mocks,
		onClaim:    true,
		onComplete: true,
		timeout:    5 * time.Second,
		hostname:   "test-host",
		log:        log,
	}, log
}

func TestService_Send(t *testing.T) {
	t.Run("nil receiver is no-op", func(t *testing.T) {
		var svc *Service
		svc.Send(context.Background(), Result{Status: StatusClaimed})
	})

	t.Run("claimed sends to channels when onClaim is true", func(t *testing.T) {
		mock := &mockNotifier{schema: "http"}
		svc, _ := newTestService(channel{notifier: mock, dest: "https://example.com/hook"})
		svc.Send(context.Background(), Result{Status: StatusClaimed, Title: "Commercial Use", Revenue: 32250,
			Royalties: 1612, RevShare: 5})
		calls := mock.getCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, "https://example.com/hook", calls[0].dest)
		assert.Contains(t, calls[0].text, "royaltydemo royalties claimed on test-host")
		assert.Contains(t, calls[0].text, "royalties: $1,612 (5% share)")
	})

	t.Run("claimed skipped when onClaim is false", func(t *testing.T) {
		mock := &mockNotifier{schema: "http"}
		svc, _ := newTestService(channel{notifier: mock, dest: "https://example.com/hook"})
		svc.onClaim = false
		svc.Send(context.Background(), Result{Status: StatusClaimed})
		assert.Empty(t, mock.getCalls())
	})

	t.Run("completed sends when onComplete is true", func(t *testing.T) {
		mock := &mockNotifier{schema: "http"}
		svc, _ := newTestService(channel{notifier: mock, dest: "https://example.com/hook"})
		svc.Send(context.Background(), Result{Status: StatusCompleted})
		calls := mock.getCalls()
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0].text, "royaltydemo run completed on test-host")
	})

	t.Run("completed skipped when onComplete is false", func(t *testing.T) {
		mock := &mockNotifier{schema: "http"}
		svc, _ := newTestService(channel{notifier: mock, dest: "https://example.com/hook"})
		svc.onComplete = false
		svc.Send(context.Background(), Result{Status: StatusCompleted})
		assert.Empty(t, mock.getCalls())
	})

	t.Run("unknown status ignored", func(t *testing.T) {
		mock := &mockNotifier{schema: "http"}
		svc, _ := newTestService(channel{notifier: mock, dest: "https://example.com/hook"})
		svc.Send(context.Background(), Result{Status: "earning"})
		assert.Empty(t, mock.getCalls())
	})

	t.Run("notifier errors are logged not returned", func(t *testing.T) {
		mock := &mockNotifier{schema: "http", err: errors.New("network error")}
		svc, log := newTestService(channel{notifier: mock, dest: "https://example.com/hook"})
		svc.Send(context.Background(), Result{Status: StatusCompleted})
		msgs := log.getMsgs()
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "notification failed")
		assert.Contains(t, msgs[0], "network error")
	})

	t.Run("multiple channels all receive notification", func(t *testing.T) {
		mock1 := &mockNotifier{schema: "http"}
		mock2 := &mockNotifier{schema: "slack"}
		svc, _ := newTestService(
			channel{notifier: mock1, dest: "https://example.com/hook"},
			channel{notifier: mock2, dest: "slack:general"},
		)
		svc.Send(context.Background(), Result{Status: StatusCompleted})
		assert.Len(t, mock1.getCalls(), 1)
		assert.Len(t, mock2.getCalls(), 1)
	})

	t.Run("html entities escaped for telegram channel", func(t *testing.T) {
		tgMock := &mockNotifier{schema: "telegram"}
		plainMock := &mockNotifier{schema: "http"}
		svc, _ := newTestService(
			channel{notifier: tgMock, dest: "telegram:-100123?parseMode=HTML", htmlEscape: true},
			channel{notifier: plainMock, dest: "https://example.com/hook"},
		)
		svc.Send(context.Background(), Result{Status: StatusCompleted, Title: "Open <Use> & more"})

		tgCalls := tgMock.getCalls()
		require.Len(t, tgCalls, 1)
		assert.Contains(t, tgCalls[0].text, "Open &lt;Use&gt; &amp; more")

		plainCalls := plainMock.getCalls()
		require.Len(t, plainCalls, 1)
		assert.Contains(t, plainCalls[0].text, "Open <Use> & more")
	})
}

func TestService_FormatMessage(t *testing.T) {
	svc := &Service{hostname: "demo-box"}

	t.Run("claimed message", func(t *testing.T) {
		msg := svc.formatMessage(Result{
			Status:    StatusClaimed,
			RunID:     "run-1",
			Title:     "Commercial Remix",
			Duration:  "17s",
			RevShare:  10,
			Revenue:   32250,
			Royalties: 3225,
			Remixes:   1370,
		})
		assert.Contains(t, msg, "royaltydemo royalties claimed on demo-box")
		assert.Contains(t, msg, "license:   Commercial Remix")
		assert.Contains(t, msg, "run:       run-1")
		assert.Contains(t, msg, "duration:  17s")
		assert.Contains(t, msg, "revenue:   $32,250")
		assert.Contains(t, msg, "royalties: $3,225 (10% share)")
		assert.Contains(t, msg, "remixes:   1370")
	})

	t.Run("completed without revenue", func(t *testing.T) {
		msg := svc.formatMessage(Result{Status: StatusCompleted, Title: "Open Use"})
		assert.Contains(t, msg, "royaltydemo run completed on demo-box")
		assert.NotContains(t, msg, "revenue:")
		assert.NotContains(t, msg, "royalties:")
		assert.NotContains(t, msg, "run:")
	})

	t.Run("message line count", func(t *testing.T) {
		msg := svc.formatMessage(Result{
			Status: StatusClaimed, RunID: "r", Title: "t", Duration: "1s", Revenue: 1, Royalties: 1, Remixes: 1,
		})
		lines := strings.Split(strings.TrimRight(msg, "\n"), "\n")
		// header, blank line, license, run, duration, revenue, royalties, remixes = 8
		assert.Len(t, lines, 8)
	})
}
