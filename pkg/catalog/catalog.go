// Package catalog holds the static display data of the demo: license options, revenue
// streams and remix streams, plus the mock revenue arithmetic built on them.
// all figures are fabricated for demonstration.
package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ipkit/royaltydemo/pkg/status"
)

// DefaultRoyaltyRate applies to non-commercial licenses.
const DefaultRoyaltyRate = 0.15

// fixed mock stats shown once the demo starts earning.
const (
	mockViews    = 12847
	mockLicenses = 342
)

// Colors holds display colors for a license card.
type Colors struct {
	Border    string `json:"border" yaml:"border"`
	Bg        string `json:"bg" yaml:"bg"`
	Text      string `json:"text" yaml:"text"`
	IconColor string `json:"icon_color" yaml:"icon_color"`
}

// License is the display metadata of a license option.
type License struct {
	ID              status.License `json:"id" yaml:"id"`
	Title           string         `json:"title" yaml:"title"`
	Tag             string         `json:"tag" yaml:"tag"`
	Description     string         `json:"description" yaml:"description"`
	Icon            string         `json:"icon" yaml:"icon"`
	Colors          Colors         `json:"colors" yaml:"colors"`
	RevShare        int            `json:"rev_share" yaml:"rev_share"`
	AllowAITraining bool           `json:"allow_ai_training" yaml:"allow_ai_training"`
}

// Platform is an external platform a stream is attributed to.
type Platform struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UsageExample is a mock revenue stream.
type UsageExample struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Revenue     int       `json:"revenue"`
	Volume      string    `json:"volume"`
	Color       string    `json:"color"`
	Platform    *Platform `json:"platform,omitempty"`
}

// RemixStream is a mock remix stream.
type RemixStream struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Count       int      `json:"count"`
	Volume      string   `json:"volume"`
	Color       string   `json:"color"`
	Platform    Platform `json:"platform"`
}

// Stats is the summary shown in the stats section.
type Stats struct {
	Views    int `json:"views"`
	Licenses int `json:"licenses"`
	Remixes  int `json:"remixes"`
	Earnings int `json:"earnings"`
}

var licenses = []License{
	{
		ID: status.LicenseOpenUse, Title: "Open Use", Tag: "Least restrictive",
		Description: "For free distribution and remixing without restriction",
		Icon:        "fas fa-unlock",
		Colors: Colors{Border: "border-orange-500", Bg: "bg-orange-50 dark:bg-orange-500/10",
			Text: "text-orange-700 dark:text-orange-400", IconColor: "#f97316"},
		AllowAITraining: true,
	},
	{
		ID: status.LicenseNonCommercial, Title: "Non-Commercial", Tag: "Get credit for your work",
		Description: "Anyone can use your work for non-commercial projects",
		Icon:        "fas fa-book",
		Colors: Colors{Border: "border-blue-500", Bg: "bg-blue-50 dark:bg-blue-500/10",
			Text: "text-blue-700 dark:text-blue-400", IconColor: "#8b5cf6"},
		AllowAITraining: true,
	},
	{
		ID: status.LicenseCommercial, Title: "Commercial Use", Tag: "Get paid for your work!",
		Description: "Allow others to use your work at your terms",
		Icon:        "fas fa-dollar-sign",
		Colors: Colors{Border: "border-emerald-500", Bg: "bg-emerald-50 dark:bg-emerald-500/10",
			Text: "text-emerald-700 dark:text-emerald-400", IconColor: "#10b981"},
		RevShare: 5, AllowAITraining: true,
	},
	{
		ID: status.LicenseCommercialRemix, Title: "Commercial Remix", Tag: "Get paid & get credit!",
		Description: "Let others remix your work while you get paid",
		Icon:        "fas fa-magic",
		Colors: Colors{Border: "border-violet-500", Bg: "bg-violet-50 dark:bg-violet-500/10",
			Text: "text-violet-700 dark:text-violet-400", IconColor: "#7c3aed"},
		RevShare: 10, AllowAITraining: true,
	},
}

// fallbackLicense is displayed for unknown or missing license ids.
var fallbackLicense = License{
	ID:          status.LicenseNone,
	Title:       "No License",
	Tag:         "Pick a license to continue",
	Description: "No license terms attached yet",
	Icon:        "fas fa-question",
	Colors: Colors{Border: "border-gray-300", Bg: "bg-gray-50 dark:bg-gray-500/10",
		Text: "text-gray-700 dark:text-gray-400", IconColor: "#6b7280"},
}

var usageExamples = []UsageExample{
	{ID: "merchandise", Title: "Merchandise Sales", Description: "Licensed merchandise using your IP",
		Icon: "fas fa-tshirt", Revenue: 12500, Volume: "2.5K", Color: "#22c55e",
		Platform: &Platform{Name: "Ablo", URL: "https://ablo.ai/"}},
	{ID: "staking", Title: "IP Staking", Description: "Earn rewards by staking your IP",
		Icon: "fas fa-gem", Revenue: 8750, Volume: "1.2K", Color: "#3b82f6",
		Platform: &Platform{Name: "Verio", URL: "https://www.verio.network/"}},
	{ID: "remix", Title: "Remix Licensing", Description: "Others creating derivatives of your work",
		Icon: "fas fa-palette", Revenue: 6250, Volume: "850", Color: "#f59e0b",
		Platform: &Platform{Name: "Magma", URL: "https://magma.com/"}},
	{ID: "ai-training", Title: "AI Training Data", Description: "AI models like ChatGPT training on your IP",
		Icon: "fas fa-brain", Revenue: 4750, Volume: "320", Color: "#8b5cf6"},
}

var remixExamples = []RemixStream{
	{ID: "memes", Title: "Meme Creation", Description: "Create memes from your IP",
		Icon: "fas fa-laugh", Count: 847, Volume: "2.1K", Color: "#ff6b6b",
		Platform: Platform{Name: "poster.fun", URL: "https://poster.fun/"}},
	{ID: "collaboration", Title: "Co-Collaboration", Description: "Collaborative remixes and derivatives",
		Icon: "fas fa-users", Count: 523, Volume: "1.4K", Color: "#4ecdc4",
		Platform: Platform{Name: "Magma", URL: "https://magma.com/"}},
}

// Licenses returns all license options in display order.
func Licenses() []License {
	res := make([]License, len(licenses))
	copy(res, licenses)
	return res
}

// UsageExamples returns the mock revenue streams.
func UsageExamples() []UsageExample {
	res := make([]UsageExample, len(usageExamples))
	copy(res, usageExamples)
	return res
}

// RemixExamples returns the mock remix streams.
func RemixExamples() []RemixStream {
	res := make([]RemixStream, len(remixExamples))
	copy(res, remixExamples)
	return res
}

// Lookup returns the license with the given id.
func Lookup(id status.License) (License, bool) {
	for _, l := range licenses {
		if l.ID == id {
			return l, true
		}
	}
	return License{}, false
}

// Resolve returns the license with the given id, or the fallback entry for unknown ids.
func Resolve(id status.License) License {
	if l, ok := Lookup(id); ok {
		return l
	}
	return fallbackLicense
}

// RoyaltyRate returns the share of revenue paid as royalties.
// commercial licenses use the custom revenue share, everything else the default 15%.
func RoyaltyRate(id status.License, customRevShare int) float64 {
	if id.Commercial() {
		return float64(customRevShare) / 100
	}
	return DefaultRoyaltyRate
}

// TotalRevenue sums the revenue of all usage examples.
func TotalRevenue() int {
	total := 0
	for _, u := range usageExamples {
		total += u.Revenue
	}
	return total
}

// TotalRemixes sums the counts of all remix streams.
func TotalRemixes() int {
	total := 0
	for _, r := range remixExamples {
		total += r.Count
	}
	return total
}

// Royalties returns the floored royalty amount of revenue at rate.
func Royalties(revenue int, rate float64) int {
	return int(math.Floor(float64(revenue) * rate))
}

// StatsFor returns the stats section figures for the given royalty rate.
func StatsFor(rate float64) Stats {
	return Stats{
		Views:    mockViews,
		Licenses: mockLicenses,
		Remixes:  TotalRemixes(),
		Earnings: Royalties(TotalRevenue(), rate),
	}
}

// CountUp returns the value shown at step of a count-up animation towards target.
// step beyond steps yields target.
func CountUp(target, steps, step int) int {
	if steps <= 0 || step >= steps {
		return target
	}
	if step <= 0 {
		return 0
	}
	return int(math.Floor(float64(target) / float64(steps) * float64(step)))
}

// Money formats an amount the way the dashboard shows it, e.g. $12,500.
func Money(amount int) string {
	return "$" + humanize.Comma(int64(amount))
}

// Number formats a count with thousands separators, e.g. 12,847.
func Number(n int) string {
	return humanize.Comma(int64(n))
}

// Markdown renders the license catalog and mock streams as markdown.
func Markdown(customRevShare int) string {
	var b strings.Builder
	b.WriteString("# License options\n\n")
	b.WriteString("| License | Tag | Revenue share | Royalty rate |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, l := range licenses {
		share := "-"
		if l.ID.Commercial() {
			share = fmt.Sprintf("%d%% (custom %d%%)", l.RevShare, customRevShare)
		}
		fmt.Fprintf(&b, "| **%s** (`%s`) | %s | %s | %.0f%% |\n",
			l.Title, l.ID, l.Tag, share, RoyaltyRate(l.ID, customRevShare)*100)
	}

	b.WriteString("\n## Revenue streams\n\n")
	for _, u := range usageExamples {
		platform := ""
		if u.Platform != nil {
			platform = " via " + u.Platform.Name
		}
		fmt.Fprintf(&b, "- %s: %s, %s sales%s\n", u.Title, Money(u.Revenue), u.Volume, platform)
	}

	b.WriteString("\n## Remix streams\n\n")
	for _, r := range remixExamples {
		fmt.Fprintf(&b, "- %s: %s remixes via %s\n", r.Title, humanize.Comma(int64(r.Count)), r.Platform.Name)
	}

	fmt.Fprintf(&b, "\n_All figures are mock data. Total revenue %s._\n", Money(TotalRevenue()))
	return b.String()
}
