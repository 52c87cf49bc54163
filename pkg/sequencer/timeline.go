package sequencer

import (
	"sort"
	"time"

	"github.com/ipkit/royaltydemo/pkg/status"
)

// Timings holds the configurable durations of a run.
// the branch durations are tuned to the dashboard animations and kept as configuration.
type Timings struct {
	Protecting         time.Duration // protecting -> protected
	Protected          time.Duration // protected -> earning
	OpenDuration       time.Duration // earning -> completed for open-use, non-commercial and no license
	CommercialDuration time.Duration // earning -> claiming for commercial licenses
	EventDisplay       time.Duration // how long a notification stays visible
}

// DefaultTimings returns the stock demo durations.
func DefaultTimings() Timings {
	return Timings{
		Protecting:         1500 * time.Millisecond,
		Protected:          500 * time.Millisecond,
		OpenDuration:       11000 * time.Millisecond,
		CommercialDuration: 13000 * time.Millisecond,
		EventDisplay:       4000 * time.Millisecond,
	}
}

// withDefaults fills zero durations from DefaultTimings.
func (t Timings) withDefaults() Timings {
	def := DefaultTimings()
	if t.Protecting <= 0 {
		t.Protecting = def.Protecting
	}
	if t.Protected <= 0 {
		t.Protected = def.Protected
	}
	if t.OpenDuration <= 0 {
		t.OpenDuration = def.OpenDuration
	}
	if t.CommercialDuration <= 0 {
		t.CommercialDuration = def.CommercialDuration
	}
	if t.EventDisplay <= 0 {
		t.EventDisplay = def.EventDisplay
	}
	return t
}

// RevealSpec schedules a reveal flag relative to the start of earning.
type RevealSpec struct {
	Section status.Section
	Offset  time.Duration
}

// EventSpec is a literal notification of a timeline, delayed relative to the start of earning.
type EventSpec struct {
	Key      string
	Message  string
	Icon     string
	Color    string
	Delay    time.Duration
	Position Position
}

// Timeline is everything scheduled once a run reaches earning.
type Timeline struct {
	License  status.License
	Reveals  []RevealSpec
	Events   []EventSpec
	Duration time.Duration // earning -> terminal phase
	Terminal status.Phase  // claiming for commercial licenses, completed otherwise
}

const ms = time.Millisecond

func viewed() EventSpec {
	return EventSpec{Key: "viewed", Message: "Your IP was viewed 1,000 times!", Icon: "👀",
		Color: "#3b82f6", Delay: 500 * ms, Position: PositionStats}
}

func licensed(message, icon, color string) EventSpec {
	return EventSpec{Key: "licensed", Message: message, Icon: icon, Color: color,
		Delay: 2500 * ms, Position: PositionCenter}
}

// timelines maps license ids to their reveal offsets and literal event lists.
var timelines = map[status.License]Timeline{
	status.LicenseOpenUse: {
		Reveals: []RevealSpec{
			{Section: status.SectionStats, Offset: 2000 * ms},
			{Section: status.SectionRemixStreams, Offset: 4000 * ms},
		},
		Events: []EventSpec{
			viewed(),
			licensed("Someone licensed your IP for free use", "📜", "#f97316"),
			{Key: "remixed", Message: "A creator remixed your IP into a meme", Icon: "🎨",
				Color: "#ff6b6b", Delay: 4500 * ms, Position: PositionRemix},
			{Key: "shared", Message: "Your remix was shared across 3 platforms", Icon: "🔁",
				Color: "#4ecdc4", Delay: 7000 * ms, Position: PositionRemix},
			{Key: "credited", Message: "You were credited as the original creator", Icon: "🏅",
				Color: "#f59e0b", Delay: 9500 * ms, Position: PositionCenter},
		},
	},
	status.LicenseNonCommercial: {
		Reveals: []RevealSpec{
			{Section: status.SectionStats, Offset: 2000 * ms},
			{Section: status.SectionRemixStreams, Offset: 4000 * ms},
		},
		Events: []EventSpec{
			viewed(),
			licensed("A student licensed your IP for a class project", "📚", "#8b5cf6"),
			{Key: "fan-art", Message: "A fan art remix credits you as the creator", Icon: "🎨",
				Color: "#ff6b6b", Delay: 4500 * ms, Position: PositionRemix},
			{Key: "collaboration", Message: "A collaborator built a new work on yours", Icon: "🤝",
				Color: "#4ecdc4", Delay: 7000 * ms, Position: PositionRemix},
			{Key: "attribution", Message: "Attribution recorded on 847 derivatives", Icon: "🏅",
				Color: "#f59e0b", Delay: 9500 * ms, Position: PositionStats},
		},
	},
	status.LicenseCommercial: {
		Reveals: []RevealSpec{
			{Section: status.SectionStats, Offset: 2000 * ms},
			{Section: status.SectionRevenueStreams, Offset: 5000 * ms},
			{Section: status.SectionRemixStreams, Offset: 8000 * ms},
		},
		Events: []EventSpec{
			viewed(),
			licensed("A brand licensed your IP for commercial use", "💼", "#10b981"),
			{Key: "merchandise", Message: "Merchandise sales started: $12,500 in revenue", Icon: "👕",
				Color: "#22c55e", Delay: 5500 * ms, Position: PositionRevenue},
			{Key: "staking", Message: "Your staked IP earned $8,750 in rewards", Icon: "💎",
				Color: "#3b82f6", Delay: 7500 * ms, Position: PositionRevenue},
			{Key: "remix", Message: "A remix of your IP is now on sale", Icon: "🎨",
				Color: "#ff6b6b", Delay: 9000 * ms, Position: PositionRemix},
			{Key: "royalties", Message: "Royalties are ready to claim", Icon: "💰",
				Color: "#8b5cf6", Delay: 11500 * ms, Position: PositionCenter},
		},
	},
	status.LicenseCommercialRemix: {
		Reveals: []RevealSpec{
			{Section: status.SectionStats, Offset: 2000 * ms},
			{Section: status.SectionRevenueStreams, Offset: 5000 * ms},
			{Section: status.SectionRemixStreams, Offset: 8000 * ms},
		},
		Events: []EventSpec{
			viewed(),
			licensed("A studio licensed your IP to remix and sell", "🎬", "#7c3aed"),
			{Key: "merchandise", Message: "Merchandise sales started: $12,500 in revenue", Icon: "👕",
				Color: "#22c55e", Delay: 5500 * ms, Position: PositionRevenue},
			{Key: "remix-sale", Message: "A commercial remix paid you a revenue share", Icon: "🎨",
				Color: "#ff6b6b", Delay: 8500 * ms, Position: PositionRemix},
			{Key: "ai-training", Message: "An AI model licensed your IP as training data", Icon: "🧠",
				Color: "#8b5cf6", Delay: 10000 * ms, Position: PositionRevenue},
			{Key: "royalties", Message: "Royalties are ready to claim", Icon: "💰",
				Color: "#8b5cf6", Delay: 12000 * ms, Position: PositionCenter},
		},
	},
}

// TimelineFor returns the timeline for the license. unknown and missing licenses
// get an empty open timeline: no reveals, no events, ending in completed.
func (t Timings) TimelineFor(license status.License) Timeline {
	t = t.withDefaults()
	tl, ok := timelines[license]
	if !ok {
		tl = Timeline{}
		license = status.LicenseNone
	}
	tl.License = license
	tl.Reveals = append([]RevealSpec(nil), tl.Reveals...)
	tl.Events = append([]EventSpec(nil), tl.Events...)
	if license.Commercial() {
		tl.Duration = t.CommercialDuration
		tl.Terminal = status.PhaseClaiming
	} else {
		tl.Duration = t.OpenDuration
		tl.Terminal = status.PhaseCompleted
	}
	return tl
}

// Action is the kind of a schedule step.
type Action string

// Action constants.
const (
	ActionPhase   Action = "phase"   // advance the phase
	ActionReveal  Action = "reveal"  // set a reveal flag
	ActionShow    Action = "show"    // show a queued notification
	ActionDismiss Action = "dismiss" // discard a notification after its display time
)

// Step is one row of a run's declarative schedule.
type Step struct {
	At      time.Duration   `yaml:"-" json:"-"`
	AtMs    int64           `yaml:"at_ms" json:"at_ms"`
	Action  Action          `yaml:"action" json:"action"`
	From    status.Phase    `yaml:"from,omitempty" json:"from,omitempty"`
	Phase   status.Phase    `yaml:"phase,omitempty" json:"phase,omitempty"`
	Section status.Section  `yaml:"section,omitempty" json:"section,omitempty"`
	Event   *ScheduledEvent `yaml:"event,omitempty" json:"event,omitempty"`
}

// Schedule returns the full run schedule for the license with offsets from run start,
// sorted by offset. phase steps carry the phase they advance from.
func (t Timings) Schedule(license status.License) []Step {
	t = t.withDefaults()
	tl := t.TimelineFor(license)
	earning := t.Protecting + t.Protected

	steps := []Step{
		{At: 0, Action: ActionPhase, From: status.PhaseInitial, Phase: status.PhaseProtecting},
		{At: t.Protecting, Action: ActionPhase, From: status.PhaseProtecting, Phase: status.PhaseProtected},
		{At: earning, Action: ActionPhase, From: status.PhaseProtected, Phase: status.PhaseEarning},
	}
	for _, r := range tl.Reveals {
		steps = append(steps, Step{At: earning + r.Offset, Action: ActionReveal, Section: r.Section})
	}
	for _, e := range tl.Events {
		ev := e.scheduled()
		steps = append(steps,
			Step{At: earning + e.Delay, Action: ActionShow, Event: &ev},
			Step{At: earning + e.Delay + t.EventDisplay, Action: ActionDismiss, Event: &ev},
		)
	}
	steps = append(steps, Step{At: earning + tl.Duration, Action: ActionPhase,
		From: status.PhaseEarning, Phase: tl.Terminal})

	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	for i := range steps {
		steps[i].AtMs = steps[i].At.Milliseconds()
	}
	return steps
}
