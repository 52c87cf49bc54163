package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ipkit/royaltydemo/pkg/sequencer"
)

func TestRenderMarkdown(t *testing.T) {
	t.Run("with color enabled renders markdown", func(t *testing.T) {
		content := "# Heading\n\nSome **bold** text."
		result, err := RenderMarkdown(content, false)
		require.NoError(t, err)
		assert.NotEqual(t, content, result)
		assert.Contains(t, result, "Heading")
		assert.Contains(t, result, "bold")
	})

	t.Run("with noColor returns plain content", func(t *testing.T) {
		content := "# Heading\n\nSome **bold** text."
		result, err := RenderMarkdown(content, true)
		require.NoError(t, err)
		assert.Equal(t, content, result)
	})

	t.Run("handles empty content", func(t *testing.T) {
		result, err := RenderMarkdown("", false)
		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(result))
	})

	t.Run("handles tables", func(t *testing.T) {
		result, err := RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n", false)
		require.NoError(t, err)
		assert.Contains(t, result, "1")
		assert.Contains(t, result, "2")
	})
}

func TestCatalog(t *testing.T) {
	plain, err := Catalog(20, true)
	require.NoError(t, err)
	assert.Contains(t, plain, "Commercial Remix")
	assert.Contains(t, plain, "custom 20%")
	assert.Contains(t, plain, "$32,250")

	rendered, err := Catalog(20, false)
	require.NoError(t, err)
	assert.Contains(t, rendered, "Open Use")
	assert.NotEqual(t, plain, rendered)
}

func TestTimeline(t *testing.T) {
	data, err := Timeline(sequencer.DefaultTimings())
	require.NoError(t, err)

	var docs []struct {
		License  string `yaml:"license"`
		Terminal string `yaml:"terminal"`
		Earning  int64  `yaml:"earning_ms"`
		Steps    []struct {
			AtMs    int64  `yaml:"at_ms"`
			Action  string `yaml:"action"`
			Phase   string `yaml:"phase"`
			Section string `yaml:"section"`
			Event   *struct {
				ID string `yaml:"id"`
			} `yaml:"event"`
		} `yaml:"steps"`
	}
	require.NoError(t, yaml.Unmarshal(data, &docs))
	require.Len(t, docs, 5)

	byLicense := map[string]int{}
	for i, d := range docs {
		byLicense[d.License] = i
	}

	commercial := docs[byLicense["commercial"]]
	assert.Equal(t, "claiming", commercial.Terminal)
	assert.Equal(t, int64(13000), commercial.Earning)
	last := commercial.Steps[len(commercial.Steps)-1]
	assert.Equal(t, "dismiss", last.Action, "royalties notice outlives the earning phase")

	var claimingAt int64
	for _, s := range commercial.Steps {
		if s.Phase == "claiming" {
			claimingAt = s.AtMs
		}
		if s.Action == "show" || s.Action == "dismiss" {
			require.NotNil(t, s.Event)
		}
	}
	assert.Equal(t, int64(15000), claimingAt)

	none := docs[byLicense["none"]]
	assert.Equal(t, "completed", none.Terminal)
	assert.Len(t, none.Steps, 4, "three phase steps and the terminal step")
}

func TestTimeline_CustomTimings(t *testing.T) {
	data, err := Timeline(sequencer.Timings{Protecting: 100 * time.Millisecond, Protected: 50 * time.Millisecond,
		OpenDuration: time.Second})
	require.NoError(t, err)
	assert.Contains(t, string(data), "at_ms: 1150")
}
