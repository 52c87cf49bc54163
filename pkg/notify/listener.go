package notify

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// sender is implemented by *Service.
type sender interface {
	Send(ctx context.Context, r Result)
}

// Listener sends a Result whenever a run ends in claimed or completed.
// sends run in the background so the sequencer is never blocked on a slow channel.
type Listener struct {
	sequencer.NopListener
	svc      sender
	revShare func() int
	now      func() time.Time

	mu      sync.Mutex
	run     string
	license status.License
	started time.Time

	wg sync.WaitGroup
}

// NewListener makes a listener sending through svc. revShare returns the custom
// revenue share of commercial licenses, nil means the catalog default of the license.
func NewListener(svc *Service, revShare func() int) *Listener {
	l := &Listener{revShare: revShare, now: time.Now}
	if svc != nil {
		l.svc = svc
	}
	return l
}

// RunStarted remembers the license and start time of the run.
func (l *Listener) RunStarted(run string, license status.License) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.run, l.license, l.started = run, license, l.now()
}

// PhaseChanged sends the summary on claimed and completed.
func (l *Listener) PhaseChanged(run string, _, cur status.Phase) {
	if l.svc == nil || !cur.Terminal() {
		return
	}
	l.mu.Lock()
	if run != l.run {
		l.mu.Unlock()
		return
	}
	r := l.result(cur)
	l.mu.Unlock()

	l.wg.Go(func() { l.svc.Send(context.Background(), r) })
}

// Wait blocks until all pending sends are done.
func (l *Listener) Wait() {
	l.wg.Wait()
}

// result builds the run summary. must be called with lock held.
func (l *Listener) result(phase status.Phase) Result {
	lic := catalog.Resolve(l.license)
	share := lic.RevShare
	if l.revShare != nil {
		share = l.revShare()
	}
	rate := catalog.RoyaltyRate(l.license, share)

	r := Result{
		Status:   StatusCompleted,
		RunID:    l.run,
		License:  l.license.String(),
		Title:    lic.Title,
		RevShare: int(math.Round(rate * 100)),
		Remixes:  catalog.TotalRemixes(),
		Duration: l.now().Sub(l.started).Round(time.Second).String(),
	}
	if phase == status.PhaseClaimed {
		r.Status = StatusClaimed
	}
	if l.license.Commercial() {
		r.Revenue = catalog.TotalRevenue()
		r.Royalties = catalog.Royalties(r.Revenue, rate)
	}
	return r
}
