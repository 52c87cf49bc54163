package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesLoader_ParseBytes(t *testing.T) {
	vl := newValuesLoader(DefaultsFS())

	tests := []struct {
		name    string
		input   string
		check   func(t *testing.T, v Values)
		wantErr string
	}{
		{name: "durations", input: "protecting_ms = 100\nopen_duration_ms = 0", check: func(t *testing.T, v Values) {
			assert.Equal(t, 100, v.ProtectingMs)
			assert.True(t, v.ProtectingMsSet)
			assert.Equal(t, 0, v.OpenDurationMs)
			assert.True(t, v.OpenDurationMsSet, "explicit zero is tracked")
			assert.False(t, v.ProtectedMsSet)
		}},
		{name: "negative duration", input: "protected_ms = -5", wantErr: "invalid protected_ms"},
		{name: "not a number", input: "event_display_ms = soon", wantErr: "invalid event_display_ms"},
		{name: "rev share bounds", input: "default_rev_share = 101", wantErr: "invalid default_rev_share"},
		{name: "rev share zero", input: "default_rev_share = 0", check: func(t *testing.T, v Values) {
			assert.Equal(t, 0, v.DefaultRevShare)
			assert.True(t, v.DefaultRevShareSet)
		}},
		{name: "port bounds", input: "port = 0", wantErr: "invalid port"},
		{name: "notify lists", input: "notify_channels = slack, webhook,\nnotify_webhook_urls = http://a, http://b",
			check: func(t *testing.T, v Values) {
				assert.Equal(t, []string{"slack", "webhook"}, v.Notify.Channels)
				assert.Equal(t, []string{"http://a", "http://b"}, v.Notify.WebhookURLs)
			}},
		{name: "notify bool", input: "notify_on_complete = nope", wantErr: "invalid notify_on_complete"},
		{name: "hash in value", input: "notify_slack_channel = #general", check: func(t *testing.T, v Values) {
			assert.Equal(t, "#general", v.Notify.SlackChannel)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := vl.parseValuesFromBytes([]byte(tc.input))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, v)
		})
	}
}

func TestValuesLoader_CommentOnlyFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("# port = 1\n\n   # other\n"), 0o600))

	v, err := newValuesLoader(DefaultsFS()).Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, v.Port)
}

func TestValuesLoader_MissingFiles(t *testing.T) {
	v, err := newValuesLoader(DefaultsFS()).Load("/nonexistent/local", "/nonexistent/global")
	require.NoError(t, err)
	assert.Equal(t, 15, v.DefaultRevShare)
}

func TestValues_MergeFrom(t *testing.T) {
	dst := Values{Port: 8080, PortSet: true, DefaultRevShare: 15, DefaultRevShareSet: true}
	dst.Notify.OnComplete = true
	dst.NotifyOnDoneSet = true
	dst.Notify.Channels = []string{"slack"}

	src := Values{DefaultRevShare: 0, DefaultRevShareSet: true}
	src.Notify.OnComplete = false
	src.NotifyOnDoneSet = true
	src.Notify.SlackToken = "xoxb"

	dst.mergeFrom(&src)
	assert.Equal(t, 8080, dst.Port, "unset port kept")
	assert.Equal(t, 0, dst.DefaultRevShare, "explicit zero merged")
	assert.False(t, dst.Notify.OnComplete)
	assert.Equal(t, "xoxb", dst.Notify.SlackToken)
	assert.Equal(t, []string{"slack"}, dst.Notify.Channels)
}

func Test_stripComments(t *testing.T) {
	tests := []struct{ name, input, want string }{
		{"no comments", "a = 1\nb = 2", "a = 1\nb = 2"},
		{"comment lines", "# head\na = 1\n  # indented\nb = 2", "a = 1\nb = 2"},
		{"crlf", "# x\r\na = 1\r\n", "a = 1\n"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripComments(tc.input))
		})
	}
}
