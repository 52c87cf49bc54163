// Package status defines shared demo-model types for royaltydemo.
// phase, license and reveal section types used by sequencer, wizard, progress, metrics and web packages.
package status

// Phase represents the current stage of the scripted demo.
type Phase string

// Phase constants in timeline order.
const (
	PhaseInitial    Phase = "initial"
	PhaseProtecting Phase = "protecting"
	PhaseProtected  Phase = "protected"
	PhaseUsing      Phase = "using"   // reserved, the timeline never enters it
	PhaseSelling    Phase = "selling" // reserved, the timeline never enters it
	PhaseEarning    Phase = "earning"
	PhaseClaiming   Phase = "claiming"
	PhaseClaimed    Phase = "claimed"
	PhaseCompleted  Phase = "completed"
)

// phaseOrder gives every phase its position in the timeline.
var phaseOrder = map[Phase]int{
	PhaseInitial:    0,
	PhaseProtecting: 1,
	PhaseProtected:  2,
	PhaseUsing:      3,
	PhaseSelling:    4,
	PhaseEarning:    5,
	PhaseClaiming:   6,
	PhaseClaimed:    7,
	PhaseCompleted:  8,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// Terminal reports whether p ends a run (until reset).
func (p Phase) Terminal() bool {
	return p == PhaseClaimed || p == PhaseCompleted
}

// Active reports whether the demo is past protection and showing results.
func (p Phase) Active() bool {
	switch p {
	case PhaseEarning, PhaseClaiming, PhaseClaimed, PhaseCompleted:
		return true
	default:
		return false
	}
}

// Protected reports whether the asset is shown as legally protected in this phase.
func (p Phase) Protected() bool {
	return p != PhaseInitial && p != PhaseProtecting && p != ""
}

// Before reports whether p comes strictly before other in the timeline.
// claimed and completed are alternative endings, neither is before the other.
func (p Phase) Before(other Phase) bool {
	if p.Terminal() && other.Terminal() {
		return false
	}
	return phaseOrder[p] < phaseOrder[other]
}

// License identifies one of the mock license categories.
// the empty License means no selection was made.
type License string

// License constants as used by the catalog and the timelines.
const (
	LicenseNone            License = ""
	LicenseOpenUse         License = "open-use"
	LicenseNonCommercial   License = "non-commercial"
	LicenseCommercial      License = "commercial"
	LicenseCommercialRemix License = "commercial-remix"
)

// Licenses lists all selectable licenses in display order.
var Licenses = []License{LicenseOpenUse, LicenseNonCommercial, LicenseCommercial, LicenseCommercialRemix}

// ParseLicense returns the License for id, or LicenseNone and false for unknown ids.
func ParseLicense(id string) (License, bool) {
	for _, l := range Licenses {
		if string(l) == id {
			return l, true
		}
	}
	return LicenseNone, false
}

// Commercial reports whether the license earns royalties and ends with a claim.
func (l License) Commercial() bool {
	return l == LicenseCommercial || l == LicenseCommercialRemix
}

// String returns the license id, or "none" for no selection.
func (l License) String() string {
	if l == LicenseNone {
		return "none"
	}
	return string(l)
}
