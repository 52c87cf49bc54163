package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// maxScriptStderr caps how much of a failing script's stderr ends up in the error.
const maxScriptStderr = 512

// scriptChannel hands the run summary to a user script. the script gets the Result as JSON
// on stdin and the key fields as ROYALTYDEMO_* environment variables.
type scriptChannel struct {
	path string
}

func (c scriptChannel) send(ctx context.Context, r Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.path) //nolint:gosec // script path comes from the user's config
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(os.Environ(), scriptEnv(r)...)
	cmd.WaitDelay = time.Second // children of a killed script may still hold stderr open
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) == 0 {
			return fmt.Errorf("script %s: %w", c.path, err)
		}
		if len(msg) > maxScriptStderr {
			msg = append(msg[:maxScriptStderr:maxScriptStderr], "..."...)
		}
		return fmt.Errorf("script %s: %w, stderr: %s", c.path, err, msg)
	}
	return nil
}

func scriptEnv(r Result) []string {
	return []string{
		"ROYALTYDEMO_STATUS=" + r.Status,
		"ROYALTYDEMO_RUN_ID=" + r.RunID,
		"ROYALTYDEMO_LICENSE=" + r.License,
		"ROYALTYDEMO_REVENUE=" + strconv.Itoa(r.Revenue),
		"ROYALTYDEMO_ROYALTIES=" + strconv.Itoa(r.Royalties),
	}
}
