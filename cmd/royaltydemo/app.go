package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipkit/royaltydemo/pkg/config"
	"github.com/ipkit/royaltydemo/pkg/input"
	"github.com/ipkit/royaltydemo/pkg/metrics"
	"github.com/ipkit/royaltydemo/pkg/notify"
	"github.com/ipkit/royaltydemo/pkg/progress"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
	"github.com/ipkit/royaltydemo/pkg/web"
	"github.com/ipkit/royaltydemo/pkg/wizard"
)

// errRunReset is returned when the run is reset from the dashboard while the terminal waits on it.
var errRunReset = errors.New("run was reset")

// placeholderPNG is a 1x1 image uploaded when no --image is given.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// appConfig holds the pieces wired into an app.
type appConfig struct {
	Timings       sequencer.Timings
	UploadAdvance time.Duration
	RevShare      int
	Serve         bool
	Debug         bool
	Clock         sequencer.Clock // nil uses the real clock
	Log           *progress.Logger
	Notify        *notify.Service  // nil disables notifications
	Metrics       *metrics.Metrics // nil registers on a private registry
}

// app wires the sequencer, wizard and every listener together.
type app struct {
	seq      *sequencer.Sequencer
	wiz      *wizard.Wizard
	pub      *web.Publisher // nil unless serving
	notifier *notify.Listener
	metrics  *metrics.Metrics
	log      *progress.Logger
	changed  chan struct{}
}

// phaseWaker wakes the terminal flow on phase changes.
type phaseWaker struct {
	sequencer.NopListener
	wake func()
}

func (w phaseWaker) PhaseChanged(string, status.Phase, status.Phase) { w.wake() }

func newApp(cfg appConfig) *app {
	a := &app{log: cfg.Log, metrics: cfg.Metrics, changed: make(chan struct{}, 1)}
	if a.metrics == nil {
		a.metrics = metrics.New(prometheus.NewRegistry())
	}
	revShare := func() int { return a.wiz.RevShare() }

	a.notifier = notify.NewListener(cfg.Notify, revShare)
	listeners := sequencer.Listeners{
		progress.NewPresenter(cfg.Log, revShare, cfg.Debug),
		a.notifier,
		a.metrics.Listener(),
		phaseWaker{wake: a.wake},
	}
	if cfg.Serve {
		a.pub = web.NewPublisher(web.NewHub(0), web.NewBuffer(0))
		listeners = append(listeners, web.NewBroadcastListener(a.pub, revShare))
	}

	a.seq = sequencer.New(sequencer.Config{Timings: cfg.Timings, Clock: cfg.Clock}, listeners)
	a.wiz = wizard.New(wizard.Config{
		UploadAdvance:   cfg.UploadAdvance,
		DefaultRevShare: cfg.RevShare,
		Clock:           cfg.Clock,
		OnChange:        a.wizardChanged,
	}, a.seq)
	return a
}

// applyConfig takes reloaded timings. the sequencer uses them from the next run,
// the wizard from the next upload.
func (a *app) applyConfig(c *config.Config) {
	a.seq.SetTimings(c.Timings())
	a.wiz.SetUploadAdvance(c.UploadAdvance())
	a.log.Info("config reloaded, new timings apply to the next run")
}

func (a *app) wizardChanged(v wizard.View) {
	if a.pub != nil {
		a.pub.WizardChanged(v)
	}
	a.wake()
}

// wake signals a state change without blocking; one pending signal is enough.
func (a *app) wake() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

// waitFor blocks until cond holds or ctx is done. cond is rechecked on every state change.
func (a *app) waitFor(ctx context.Context, cond func() (bool, error)) error {
	for {
		ok, err := cond()
		if err != nil || ok {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.changed:
		}
	}
}

// terminalRun holds the inputs of a terminal walk through the wizard.
type terminalRun struct {
	License   string
	Image     string
	AutoClaim bool
	Prompt    input.Collector
}

// runTerminal walks the wizard: upload, license, protect, then waits for the run to end
// and claims when asked to.
func (a *app) runTerminal(ctx context.Context, t terminalRun) error {
	name, data, err := loadImage(t.Image)
	if err != nil {
		return err
	}
	if err = a.wiz.Upload(name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	a.log.Info("uploaded %s, %s", name, humanize.Bytes(uint64(len(data))))

	toLicense := func() (bool, error) {
		v := a.wiz.View()
		if v.Step == wizard.StepUpload && v.Image == "" {
			return false, errRunReset
		}
		return v.Step == wizard.StepLicense, nil
	}
	if err = a.waitFor(ctx, toLicense); err != nil {
		return err
	}

	license, err := a.pickLicense(ctx, t)
	if err != nil {
		return err
	}
	if err = a.wiz.SelectLicense(string(license)); err != nil {
		return fmt.Errorf("select license: %w", err)
	}
	if _, err = a.wiz.Protect(); err != nil {
		return fmt.Errorf("protect: %w", err)
	}

	settled := func() (bool, error) {
		if a.wiz.Step() != wizard.StepDemo {
			return false, errRunReset
		}
		p := a.seq.Phase()
		return p == status.PhaseClaiming || p.Terminal(), nil
	}
	if err = a.waitFor(ctx, settled); err != nil {
		return err
	}
	if a.seq.Phase() != status.PhaseClaiming {
		return nil
	}

	claim := t.AutoClaim
	if !claim {
		if claim, err = input.AskClaim(ctx, t.Prompt, a.wiz.View().Royalties); err != nil {
			return fmt.Errorf("ask claim: %w", err)
		}
	}
	if !claim {
		a.log.Info("royalties left unclaimed")
		return nil
	}
	err = a.wiz.Claim()
	a.metrics.ObserveClaim(err)
	return err
}

// pickLicense takes the license from the command line or asks for it.
func (a *app) pickLicense(ctx context.Context, t terminalRun) (status.License, error) {
	if t.License == "" {
		license, err := input.AskLicense(ctx, t.Prompt)
		if err != nil {
			return status.LicenseNone, fmt.Errorf("choose license: %w", err)
		}
		return license, nil
	}
	license, ok := status.ParseLicense(t.License)
	if !ok {
		ids := make([]string, 0, len(status.Licenses))
		for _, l := range status.Licenses {
			ids = append(ids, string(l))
		}
		return status.LicenseNone, fmt.Errorf("unknown license %q, expected one of %s", t.License, strings.Join(ids, ", "))
	}
	return license, nil
}

// loadImage reads the image to upload, or returns the placeholder if path is empty.
func loadImage(path string) (name string, data []byte, err error) {
	if path == "" {
		data, err = base64.StdEncoding.DecodeString(placeholderPNG)
		if err != nil {
			return "", nil, fmt.Errorf("decode placeholder: %w", err)
		}
		return "placeholder.png", data, nil
	}
	data, err = os.ReadFile(path) //nolint:gosec // user supplied image path
	if err != nil {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	return filepath.Base(path), data, nil
}
