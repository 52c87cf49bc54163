// Package wizard hosts the three-step flow around the demo: upload an image, choose a
// license with its revenue share, then protect it, which starts a sequencer run.
package wizard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// errors returned by wizard operations.
var (
	ErrNoLicense = errors.New("no license selected")
	ErrWrongStep = errors.New("not allowed at this step")
	ErrNotImage  = errors.New("file is not an image")
)

// Step is the position in the outer wizard.
type Step int

// wizard steps.
const (
	StepUpload  Step = 1
	StepLicense Step = 2
	StepDemo    Step = 3
)

// DefaultMaxUpload limits uploaded images to 10MiB.
const DefaultMaxUpload = 10 << 20

// Runner is the sequencer as seen by the wizard.
type Runner interface {
	Start(license status.License) string
	Claim() error
	Reset()
	Snapshot() sequencer.Snapshot
}

// Config holds wizard settings.
type Config struct {
	UploadAdvance   time.Duration   // delay from a successful upload to the license step
	DefaultRevShare int             // revenue share preset and restored on reset
	MaxUpload       int64           // upload size limit, 0 uses DefaultMaxUpload
	Clock           sequencer.Clock // nil uses sequencer.RealClock
	OnChange        func(View)      // called after every wizard state change, outside the lock
}

// Wizard owns the wizard state and drives the sequencer.
type Wizard struct {
	cfg Config
	seq Runner

	// runMu serializes Protect and Reset, so a reset can't land between entering step 3
	// and starting the run. mu is not held across seq calls, listeners read the wizard.
	runMu sync.Mutex

	mu        sync.Mutex
	step      Step
	image     string // data: URL of the uploaded image
	imageName string
	license   status.License
	revShare  int
	advance   sequencer.Timer
	gen       int // bumped on reset, stale upload advances compare against it
}

// New makes a wizard at step 1.
func New(cfg Config, seq Runner) *Wizard {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.Clock == nil {
		cfg.Clock = sequencer.RealClock{}
	}
	return &Wizard{cfg: cfg, seq: seq, step: StepUpload, revShare: cfg.DefaultRevShare}
}

// Upload reads an image and schedules the move to the license step. a failed read,
// an oversized file or a non-image leaves the wizard where it is.
func (w *Wizard) Upload(name string, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, w.cfg.MaxUpload+1))
	if err != nil {
		return fmt.Errorf("read upload %s: %w", name, err)
	}
	if int64(len(data)) > w.cfg.MaxUpload {
		return fmt.Errorf("upload %s exceeds %d bytes", name, w.cfg.MaxUpload)
	}
	contentType := http.DetectContentType(data)
	if len(data) == 0 || !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %s is %s", ErrNotImage, name, contentType)
	}

	w.mu.Lock()
	if w.step != StepUpload {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("%w: upload at step %d", ErrWrongStep, step)
	}
	w.image = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	w.imageName = name
	if w.advance != nil {
		w.advance.Stop()
	}
	gen := w.gen
	w.advance = w.cfg.Clock.AfterFunc(w.cfg.UploadAdvance, func() { w.advanceToLicense(gen) })
	w.mu.Unlock()

	w.changed()
	return nil
}

// advanceToLicense moves from upload to license step unless the wizard was reset meanwhile.
func (w *Wizard) advanceToLicense(gen int) {
	w.mu.Lock()
	if gen != w.gen || w.step != StepUpload {
		w.mu.Unlock()
		return
	}
	w.step = StepLicense
	w.advance = nil
	w.mu.Unlock()

	w.changed()
}

// SelectLicense picks the license by id.
func (w *Wizard) SelectLicense(id string) error {
	license, ok := status.ParseLicense(id)
	if !ok {
		return fmt.Errorf("%w: unknown license %q", ErrNoLicense, id)
	}

	w.mu.Lock()
	if w.step != StepLicense {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("%w: license selection at step %d", ErrWrongStep, step)
	}
	w.license = license
	w.mu.Unlock()

	w.changed()
	return nil
}

// SetRevShare sets the custom revenue share of commercial licenses, in percent.
func (w *Wizard) SetRevShare(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("revenue share %d out of range 0..100", pct)
	}

	w.mu.Lock()
	if w.step != StepLicense {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("%w: revenue share at step %d", ErrWrongStep, step)
	}
	w.revShare = pct
	w.mu.Unlock()

	w.changed()
	return nil
}

// Protect enters step 3 and starts the demo run. it starts the sequencer once per
// entry into step 3; calling it again before a reset fails with ErrWrongStep.
func (w *Wizard) Protect() (string, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.mu.Lock()
	if w.step != StepLicense {
		step := w.step
		w.mu.Unlock()
		return "", fmt.Errorf("%w: protect at step %d", ErrWrongStep, step)
	}
	if w.license == status.LicenseNone {
		w.mu.Unlock()
		return "", ErrNoLicense
	}
	w.step = StepDemo
	license := w.license
	w.mu.Unlock()

	// the sequencer delivers its own callbacks, so it is started outside the wizard lock
	run := w.seq.Start(license)
	w.changed()
	return run, nil
}

// Claim claims royalties of the current run.
func (w *Wizard) Claim() error {
	w.mu.Lock()
	step := w.step
	w.mu.Unlock()
	if step != StepDemo {
		return fmt.Errorf("%w: claim at step %d", ErrWrongStep, step)
	}
	if err := w.seq.Claim(); err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	w.changed()
	return nil
}

// Reset resets the sequencer and returns the wizard to step 1 with nothing selected.
func (w *Wizard) Reset() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.seq.Reset()

	w.mu.Lock()
	if w.advance != nil {
		w.advance.Stop()
		w.advance = nil
	}
	w.gen++
	w.step = StepUpload
	w.image = ""
	w.imageName = ""
	w.license = status.LicenseNone
	w.revShare = w.cfg.DefaultRevShare
	w.mu.Unlock()

	w.changed()
}

// SetUploadAdvance replaces the delay between upload and the license step.
// an upload already waiting keeps its delay.
func (w *Wizard) SetUploadAdvance(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.UploadAdvance = d
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// RevShare returns the custom revenue share in percent.
func (w *Wizard) RevShare() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.revShare
}

func (w *Wizard) changed() {
	if w.cfg.OnChange != nil {
		w.cfg.OnChange(w.View())
	}
}

// Sections says which dashboard sections exist for the selected license.
// a section is shown once it exists and its reveal flag is set.
type Sections struct {
	Stats          bool `json:"stats"`
	RevenueStreams bool `json:"revenue_streams"`
	RemixStreams   bool `json:"remix_streams"`
}

// View is a snapshot of the wizard with the figures the dashboard renders.
type View struct {
	Step        Step               `json:"step"`
	Image       string             `json:"image,omitempty"`
	ImageName   string             `json:"image_name,omitempty"`
	License     status.License     `json:"license"`
	LicenseInfo catalog.License    `json:"license_info"`
	RevShare    int                `json:"rev_share"`
	RoyaltyRate float64            `json:"royalty_rate"`
	Revenue     int                `json:"revenue"`
	Royalties   int                `json:"royalties"`
	Stats       catalog.Stats      `json:"stats"`
	Sections    Sections           `json:"sections"`
	Demo        sequencer.Snapshot `json:"demo"`
}

// Visible reports whether a section exists for the license and has been revealed.
func (v View) Visible(s status.Section) bool {
	var exists bool
	switch s {
	case status.SectionStats:
		exists = v.Sections.Stats
	case status.SectionRevenueStreams:
		exists = v.Sections.RevenueStreams
	case status.SectionRemixStreams:
		exists = v.Sections.RemixStreams
	}
	return exists && v.Demo.Reveals.Get(s)
}

// View returns the current wizard state.
func (w *Wizard) View() View {
	demo := w.seq.Snapshot()

	w.mu.Lock()
	defer w.mu.Unlock()

	rate := catalog.RoyaltyRate(w.license, w.revShare)
	revenue := catalog.TotalRevenue()
	selected := w.license != status.LicenseNone
	return View{
		Step:        w.step,
		Image:       w.image,
		ImageName:   w.imageName,
		License:     w.license,
		LicenseInfo: catalog.Resolve(w.license),
		RevShare:    w.revShare,
		RoyaltyRate: rate,
		Revenue:     revenue,
		Royalties:   catalog.Royalties(revenue, rate),
		Stats:       catalog.StatsFor(rate),
		Sections: Sections{
			Stats:          selected,
			RevenueStreams: w.license.Commercial(),
			RemixStreams:   selected,
		},
		Demo: demo,
	}
}
