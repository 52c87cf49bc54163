package web

import (
	"sync"

	log "github.com/go-pkgz/lgr"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
	"github.com/ipkit/royaltydemo/pkg/wizard"
)

// Publisher stores events for replay and fans them out to connected clients.
type Publisher struct {
	hub    *Hub
	buffer *Buffer
	mu     sync.Mutex // orders Publish against Subscribe so replay and live events don't overlap
}

// NewPublisher makes a publisher over hub and buffer.
func NewPublisher(hub *Hub, buffer *Buffer) *Publisher {
	return &Publisher{hub: hub, buffer: buffer}
}

// Publish records e and broadcasts it.
func (p *Publisher) Publish(e Event) {
	p.mu.Lock()
	p.buffer.Add(e)
	dropped := p.hub.Broadcast(e)
	p.mu.Unlock()
	if dropped > 0 {
		log.Printf("[WARN] %s event dropped for %d slow clients", e.Type, dropped)
	}
}

// WizardChanged publishes the wizard step, for wizard.Config.OnChange.
func (p *Publisher) WizardChanged(v wizard.View) {
	p.Publish(NewStepEvent(int(v.Step), v.Demo.Phase))
}

// Subscribe registers a client whose channel starts with the current run's history.
// every event is delivered exactly once, either as history or live.
func (p *Publisher) Subscribe() chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hub.Subscribe(p.buffer.All()...)
}

// Unsubscribe removes a client registered with Subscribe.
func (p *Publisher) Unsubscribe(ch chan Event) {
	p.hub.Unsubscribe(ch)
}

// Hub returns the publisher's hub.
func (p *Publisher) Hub() *Hub {
	return p.hub
}

// Buffer returns the publisher's replay buffer.
func (p *Publisher) Buffer() *Buffer {
	return p.buffer
}

// BroadcastListener turns sequencer callbacks into dashboard events.
type BroadcastListener struct {
	pub      *Publisher
	revShare func() int

	mu      sync.Mutex
	phase   status.Phase
	license status.License
}

// NewBroadcastListener makes a listener publishing through pub. revShare supplies the custom
// revenue share used for the claimed amount, nil means the license default.
func NewBroadcastListener(pub *Publisher, revShare func() int) *BroadcastListener {
	if revShare == nil {
		revShare = func() int { return 0 }
	}
	return &BroadcastListener{pub: pub, revShare: revShare, phase: status.PhaseInitial}
}

// RunStarted publishes a run event, which also clears the replay buffer.
func (b *BroadcastListener) RunStarted(run string, license status.License) {
	b.mu.Lock()
	b.license = license
	b.mu.Unlock()
	b.pub.Publish(NewRunEvent(run, license))
}

// PhaseChanged publishes the transition, plus a claim event on claimed.
func (b *BroadcastListener) PhaseChanged(run string, old, cur status.Phase) {
	b.mu.Lock()
	b.phase = cur
	license := b.license
	b.mu.Unlock()

	b.pub.Publish(NewPhaseEvent(run, old, cur))
	if cur == status.PhaseClaimed {
		rate := catalog.RoyaltyRate(license, b.revShare())
		b.pub.Publish(NewClaimEvent(run, catalog.Money(catalog.Royalties(catalog.TotalRevenue(), rate))))
	}
}

// SectionRevealed publishes the reveal.
func (b *BroadcastListener) SectionRevealed(run string, section status.Section) {
	b.pub.Publish(NewRevealEvent(run, b.currentPhase(), section))
}

// EventShown publishes the notification.
func (b *BroadcastListener) EventShown(run string, ev sequencer.ScheduledEvent) {
	b.pub.Publish(NewNotificationEvent(run, b.currentPhase(), ev))
}

// EventDismissed publishes the dismissal.
func (b *BroadcastListener) EventDismissed(run string, ev sequencer.ScheduledEvent) {
	b.pub.Publish(NewDismissEvent(run, b.currentPhase(), ev))
}

// RunReset publishes a reset event, which clears the replay buffer.
func (b *BroadcastListener) RunReset(run string) {
	b.mu.Lock()
	b.phase = status.PhaseInitial
	b.license = status.LicenseNone
	b.mu.Unlock()
	b.pub.Publish(NewResetEvent(run))
}

// StaleCallback is only logged, clients never see replaced runs.
func (b *BroadcastListener) StaleCallback(run string) {
	log.Printf("[DEBUG] ignored timer of replaced run %s", run)
}

func (b *BroadcastListener) currentPhase() status.Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}
