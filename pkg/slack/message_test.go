package slack

import (
	"strings"
	"testing"
	"unicode/utf8"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraduationMessage(t *testing.T) {
	input := GraduationInput{
		AgentID:     "agent-1",
		AgentName:   "Momentum Hunter",
		FromStatus:  "learning",
		ToStatus:    "paper_trading",
		WinRate:     0.62,
		Sharpe:      1.4,
		TotalReturn: 0.08,
	}
	blocks := BuildGraduationMessage(input, "https://dash.example.com")

	require.Len(t, blocks, 3)

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":mortar_board:")
	assert.Contains(t, header.Text.Text, "Momentum Hunter graduated: learning -> paper_trading")

	detail := blocks[1].(*goslack.SectionBlock)
	assert.Contains(t, detail.Text.Text, "62.0%")
	assert.Contains(t, detail.Text.Text, "1.40")

	action := blocks[2].(*goslack.ActionBlock)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Contains(t, btn.URL, "https://dash.example.com/agents/agent-1")
}

func TestBuildGraduationMessage_Forced(t *testing.T) {
	input := GraduationInput{AgentID: "agent-2", AgentName: "Scalper", FromStatus: "learning", ToStatus: "paper_trading", Forced: true}
	blocks := BuildGraduationMessage(input, "https://dash.example.com")

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, "forced, policy bypassed")
}

func TestBuildPausedMessage(t *testing.T) {
	input := PausedInput{
		AgentID:             "agent-3",
		AgentName:           "Breakout Bot",
		ConsecutiveFailures: 5,
		LastFailReason:      "SandboxFailed",
	}
	blocks := BuildPausedMessage(input, "https://dash.example.com")

	require.Len(t, blocks, 3)

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":no_entry_sign:")
	assert.Contains(t, header.Text.Text, "Breakout Bot paused after 5 consecutive iteration failures")

	detail := blocks[1].(*goslack.SectionBlock)
	assert.Contains(t, detail.Text.Text, "SandboxFailed")

	action := blocks[2].(*goslack.ActionBlock)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Contains(t, btn.URL, "https://dash.example.com/agents/agent-3")
}

func TestBuildPausedMessage_NoReason(t *testing.T) {
	input := PausedInput{AgentID: "agent-4", AgentName: "Swing Bot", ConsecutiveFailures: 5}
	blocks := BuildPausedMessage(input, "https://dash.example.com")
	require.Len(t, blocks, 2)
}

func TestTruncateForSlack(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncateForSlack("hello"))
	})

	t.Run("exact limit unchanged", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength)
		assert.Equal(t, text, truncateForSlack(text))
	})

	t.Run("over limit truncated", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength+100)
		result := truncateForSlack(text)
		assert.True(t, len(result) < len(text))
		assert.Contains(t, result, "truncated")
	})

	t.Run("multi-byte runes not split", func(t *testing.T) {
		text := strings.Repeat("🔥", maxBlockTextLength+10)
		result := truncateForSlack(text)
		assert.Contains(t, result, "truncated")
		assert.True(t, utf8.ValidString(result), "result should be valid UTF-8")
		prefix := strings.Split(result, "\n\n_...")[0]
		assert.Equal(t, maxBlockTextLength, utf8.RuneCountInString(prefix))
	})
}
