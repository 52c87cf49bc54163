// Package render provides terminal rendering of the license catalog and the timeline table.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"

	"github.com/ipkit/royaltydemo/pkg/catalog"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/status"
)

// RenderMarkdown renders markdown content for terminal display.
// If noColor is true, returns the content unchanged.
// Otherwise, uses glamour to render with auto-detected style and word wrap.
func RenderMarkdown(content string, noColor bool) (string, error) {
	if noColor {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return result, nil
}

// Catalog renders the license options and mock streams, with commercial rates at customRevShare.
func Catalog(customRevShare int, noColor bool) (string, error) {
	return RenderMarkdown(catalog.Markdown(customRevShare), noColor)
}

// timelineDoc is the exported schedule of one license.
type timelineDoc struct {
	License  string           `yaml:"license"`
	Terminal status.Phase     `yaml:"terminal"`
	Duration int64            `yaml:"earning_ms"`
	Steps    []sequencer.Step `yaml:"steps"`
}

// Timeline exports the schedule of every license, and of a run without license, as YAML.
// step offsets are measured from the run start.
func Timeline(t sequencer.Timings) ([]byte, error) {
	licenses := append(append([]status.License(nil), status.Licenses...), status.LicenseNone)
	docs := make([]timelineDoc, 0, len(licenses))
	for _, l := range licenses {
		tl := t.TimelineFor(l)
		docs = append(docs, timelineDoc{
			License:  l.String(),
			Terminal: tl.Terminal,
			Duration: tl.Duration.Milliseconds(),
			Steps:    t.Schedule(l),
		})
	}

	data, err := yaml.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("marshal timeline: %w", err)
	}
	return data, nil
}
