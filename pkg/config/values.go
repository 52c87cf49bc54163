package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/ipkit/royaltydemo/pkg/notify"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., PortSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit 0/false from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	ProtectingMs            int
	ProtectingMsSet         bool
	ProtectedMs             int
	ProtectedMsSet          bool
	OpenDurationMs          int
	OpenDurationMsSet       bool
	CommercialDurationMs    int
	CommercialDurationMsSet bool
	EventDisplayMs          int
	EventDisplayMsSet       bool
	UploadAdvanceMs         int
	UploadAdvanceMsSet      bool

	DefaultRevShare    int
	DefaultRevShareSet bool
	Port               int
	PortSet            bool

	Notify           notify.Params
	NotifyOnClaimSet bool
	NotifyOnDoneSet  bool
	NotifyTimeoutSet bool
	SMTPPortSet      bool
	SMTPStartTLSSet  bool
}

// valuesLoader loads Values with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	// start with embedded defaults
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var values Values
	section := cfg.Section("") // default section (no section header)

	// timeline durations
	durations := []struct {
		key   string
		field *int
		set   *bool
	}{
		{"protecting_ms", &values.ProtectingMs, &values.ProtectingMsSet},
		{"protected_ms", &values.ProtectedMs, &values.ProtectedMsSet},
		{"open_duration_ms", &values.OpenDurationMs, &values.OpenDurationMsSet},
		{"commercial_duration_ms", &values.CommercialDurationMs, &values.CommercialDurationMsSet},
		{"event_display_ms", &values.EventDisplayMs, &values.EventDisplayMsSet},
		{"upload_advance_ms", &values.UploadAdvanceMs, &values.UploadAdvanceMsSet},
	}
	for _, d := range durations {
		ok, val, err := intKey(section, d.key, 0, 600000)
		if err != nil {
			return Values{}, err
		}
		if ok {
			*d.field, *d.set = val, true
		}
	}

	// wizard and dashboard
	if ok, val, err := intKey(section, "default_rev_share", 0, 100); err != nil {
		return Values{}, err
	} else if ok {
		values.DefaultRevShare, values.DefaultRevShareSet = val, true
	}
	if ok, val, err := intKey(section, "port", 1, 65535); err != nil {
		return Values{}, err
	} else if ok {
		values.Port, values.PortSet = val, true
	}

	if err := parseNotify(section, &values); err != nil {
		return Values{}, err
	}
	return values, nil
}

// parseNotify reads the notify_* keys.
func parseNotify(section *ini.Section, values *Values) error {
	n := &values.Notify
	n.Channels = listKey(section, "notify_channels")
	n.EmailTo = listKey(section, "notify_email_to")
	n.WebhookURLs = listKey(section, "notify_webhook_urls")

	strs := []struct {
		key   string
		field *string
	}{
		{"notify_telegram_token", &n.TelegramToken},
		{"notify_telegram_chat", &n.TelegramChat},
		{"notify_slack_token", &n.SlackToken},
		{"notify_slack_channel", &n.SlackChannel},
		{"notify_smtp_host", &n.SMTPHost},
		{"notify_smtp_username", &n.SMTPUsername},
		{"notify_smtp_password", &n.SMTPPassword},
		{"notify_email_from", &n.EmailFrom},
		{"notify_custom_script", &n.CustomScript},
	}
	for _, s := range strs {
		if key, err := section.GetKey(s.key); err == nil {
			*s.field = strings.TrimSpace(key.String())
		}
	}

	bools := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"notify_on_claim", &n.OnClaim, &values.NotifyOnClaimSet},
		{"notify_on_complete", &n.OnComplete, &values.NotifyOnDoneSet},
		{"notify_smtp_starttls", &n.SMTPStartTLS, &values.SMTPStartTLSSet},
	}
	for _, b := range bools {
		key, err := section.GetKey(b.key)
		if err != nil {
			continue
		}
		val, boolErr := key.Bool()
		if boolErr != nil {
			return fmt.Errorf("invalid %s: %w", b.key, boolErr)
		}
		*b.field, *b.set = val, true
	}

	if ok, val, err := intKey(section, "notify_timeout_ms", 0, 600000); err != nil {
		return err
	} else if ok {
		n.TimeoutMs, values.NotifyTimeoutSet = val, true
	}
	if ok, val, err := intKey(section, "notify_smtp_port", 1, 65535); err != nil {
		return err
	} else if ok {
		n.SMTPPort, values.SMTPPortSet = val, true
	}
	return nil
}

// intKey reads an integer key bounded by [lo, hi]. returns false if the key is absent.
func intKey(section *ini.Section, name string, lo, hi int) (bool, int, error) {
	key, err := section.GetKey(name)
	if err != nil {
		return false, 0, nil //nolint:nilerr // absent key is not an error
	}
	val, intErr := key.Int()
	if intErr != nil {
		return false, 0, fmt.Errorf("invalid %s: %w", name, intErr)
	}
	if val < lo || val > hi {
		return false, 0, fmt.Errorf("invalid %s: must be within %d..%d, got %d", name, lo, hi, val)
	}
	return true, val, nil
}

// listKey reads a comma-separated key, dropping empty items.
func listKey(section *ini.Section, name string) []string {
	key, err := section.GetKey(name)
	if err != nil {
		return nil
	}
	var res []string
	for p := range strings.SplitSeq(key.String(), ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom merges explicitly set values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	mergeInt := func(d *int, dSet *bool, s int, sSet bool) {
		if sSet {
			*d, *dSet = s, true
		}
	}
	mergeInt(&dst.ProtectingMs, &dst.ProtectingMsSet, src.ProtectingMs, src.ProtectingMsSet)
	mergeInt(&dst.ProtectedMs, &dst.ProtectedMsSet, src.ProtectedMs, src.ProtectedMsSet)
	mergeInt(&dst.OpenDurationMs, &dst.OpenDurationMsSet, src.OpenDurationMs, src.OpenDurationMsSet)
	mergeInt(&dst.CommercialDurationMs, &dst.CommercialDurationMsSet, src.CommercialDurationMs, src.CommercialDurationMsSet)
	mergeInt(&dst.EventDisplayMs, &dst.EventDisplayMsSet, src.EventDisplayMs, src.EventDisplayMsSet)
	mergeInt(&dst.UploadAdvanceMs, &dst.UploadAdvanceMsSet, src.UploadAdvanceMs, src.UploadAdvanceMsSet)
	mergeInt(&dst.DefaultRevShare, &dst.DefaultRevShareSet, src.DefaultRevShare, src.DefaultRevShareSet)
	mergeInt(&dst.Port, &dst.PortSet, src.Port, src.PortSet)
	mergeInt(&dst.Notify.TimeoutMs, &dst.NotifyTimeoutSet, src.Notify.TimeoutMs, src.NotifyTimeoutSet)
	mergeInt(&dst.Notify.SMTPPort, &dst.SMTPPortSet, src.Notify.SMTPPort, src.SMTPPortSet)

	mergeBool := func(d *bool, dSet *bool, s bool, sSet bool) {
		if sSet {
			*d, *dSet = s, true
		}
	}
	mergeBool(&dst.Notify.OnClaim, &dst.NotifyOnClaimSet, src.Notify.OnClaim, src.NotifyOnClaimSet)
	mergeBool(&dst.Notify.OnComplete, &dst.NotifyOnDoneSet, src.Notify.OnComplete, src.NotifyOnDoneSet)
	mergeBool(&dst.Notify.SMTPStartTLS, &dst.SMTPStartTLSSet, src.Notify.SMTPStartTLS, src.SMTPStartTLSSet)

	mergeStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	mergeStr(&dst.Notify.TelegramToken, src.Notify.TelegramToken)
	mergeStr(&dst.Notify.TelegramChat, src.Notify.TelegramChat)
	mergeStr(&dst.Notify.SlackToken, src.Notify.SlackToken)
	mergeStr(&dst.Notify.SlackChannel, src.Notify.SlackChannel)
	mergeStr(&dst.Notify.SMTPHost, src.Notify.SMTPHost)
	mergeStr(&dst.Notify.SMTPUsername, src.Notify.SMTPUsername)
	mergeStr(&dst.Notify.SMTPPassword, src.Notify.SMTPPassword)
	mergeStr(&dst.Notify.EmailFrom, src.Notify.EmailFrom)
	mergeStr(&dst.Notify.CustomScript, src.Notify.CustomScript)

	if len(src.Notify.Channels) > 0 {
		dst.Notify.Channels = src.Notify.Channels
	}
	if len(src.Notify.EmailTo) > 0 {
		dst.Notify.EmailTo = src.Notify.EmailTo
	}
	if len(src.Notify.WebhookURLs) > 0 {
		dst.Notify.WebhookURLs = src.Notify.WebhookURLs
	}
}

// stripComments removes lines starting with # (comment lines) from content.
// handles both Unix (LF) and Windows (CRLF) line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
