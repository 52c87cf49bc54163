package progress

import (
	"fmt"
	"strings"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// Presenter renders sequencer callbacks as transcript lines.
type Presenter struct {
	log      *Logger
	revShare func() int
	debug    bool
	license  status.License
}

// NewPresenter makes a presenter writing to log. revShare returns the custom revenue share
// used for commercial licenses; debug also prints dismissals and stale timer callbacks.
func NewPresenter(log *Logger, revShare func() int, debug bool) *Presenter {
	return &Presenter{log: log, revShare: revShare, debug: debug}
}

// RunStarted prints the run header.
func (p *Presenter) RunStarted(run string, license status.License) {
	p.license = license
	lic := catalog.Resolve(license)
	p.log.Info("run %s started, license: %s", shortID(run), lic.Title)
}

// PhaseChanged recolors the transcript and prints the phase banner.
func (p *Presenter) PhaseChanged(_ string, _, cur status.Phase) {
	p.log.SetPhase(cur)
	royalties := catalog.Money(catalog.Royalties(catalog.TotalRevenue(), p.rate()))

	switch cur {
	case status.PhaseProtecting:
		p.log.Print("protecting your IP...")
	case status.PhaseProtected:
		p.log.Print("your IP is protected and registered")
	case status.PhaseEarning:
		p.log.Print("your IP is live and earning")
	case status.PhaseClaiming:
		p.log.Print("royalties ready to claim: %s", royalties)
	case status.PhaseClaimed:
		p.log.Print("royalties claimed: %s", royalties)
	case status.PhaseCompleted:
		p.log.Print("demo completed")
	case status.PhaseInitial:
		p.log.Info("back to start")
	}
}

// SectionRevealed prints the figures of the revealed section.
func (p *Presenter) SectionRevealed(_ string, section status.Section) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", section.Label())

	switch section {
	case status.SectionStats:
		st := catalog.StatsFor(p.rate())
		fmt.Fprintf(&b, "  views:    %s\n", catalog.Number(st.Views))
		fmt.Fprintf(&b, "  licenses: %s\n", catalog.Number(st.Licenses))
		fmt.Fprintf(&b, "  remixes:  %s\n", catalog.Number(st.Remixes))
		if p.license.Commercial() {
			fmt.Fprintf(&b, "  earnings: %s\n", catalog.Money(st.Earnings))
		}
	case status.SectionRevenueStreams:
		for _, u := range catalog.UsageExamples() {
			fmt.Fprintf(&b, "  %-18s %8s\n", u.Title, catalog.Money(u.Revenue))
		}
		fmt.Fprintf(&b, "  total %s, your royalties %s\n", catalog.Money(catalog.TotalRevenue()),
			catalog.Money(catalog.Royalties(catalog.TotalRevenue(), p.rate())))
	case status.SectionRemixStreams:
		for _, r := range catalog.RemixExamples() {
			fmt.Fprintf(&b, "  %-18s %5s\n", r.Title, catalog.Number(r.Count))
		}
	}
	p.log.PrintAligned(b.String())
}

// EventShown prints the notification.
func (p *Presenter) EventShown(_ string, ev sequencer.ScheduledEvent) {
	p.log.Print("%s %s", ev.Icon, ev.Message)
}

// EventDismissed is printed in debug mode only.
func (p *Presenter) EventDismissed(_ string, ev sequencer.ScheduledEvent) {
	if p.debug {
		p.log.Info("dismissed %s", ev.ID)
	}
}

// RunReset prints nothing, the phase change back to initial is printed instead.
func (p *Presenter) RunReset(string) {
	p.license = status.LicenseNone
}

// StaleCallback is printed in debug mode only.
func (p *Presenter) StaleCallback(run string) {
	if p.debug {
		p.log.Warn("ignored timer of replaced run %s", shortID(run))
	}
}

func (p *Presenter) rate() float64 {
	share := catalog.Resolve(p.license).RevShare
	if p.revShare != nil {
		share = p.revShare()
	}
	return catalog.RoyaltyRate(p.license, share)
}

// shortID trims uuids to their first group for display.
func shortID(run string) string {
	if i := strings.IndexByte(run, '-'); i > 0 {
		return run[:i]
	}
	return run
}
