package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

func agentURL(agentID, dashboardURL string) string {
	return fmt.Sprintf("%s/agents/%s", dashboardURL, agentID)
}

// BuildGraduationMessage creates Block Kit blocks announcing a graduation
// transition (spec.md §4.9).
func BuildGraduationMessage(input GraduationInput, dashboardURL string) []goslack.Block {
	emoji := ":mortar_board:"
	headline := fmt.Sprintf("%s *%s graduated: %s -> %s*", emoji, input.AgentName, input.FromStatus, input.ToStatus)
	if input.Forced {
		headline += " _(forced, policy bypassed)_"
	}

	detail := fmt.Sprintf("win rate %.1f%% · sharpe %.2f · total return %.2f%%",
		input.WinRate*100, input.Sharpe, input.TotalReturn*100)

	url := agentURL(input.AgentID, dashboardURL)

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headline, false, false),
			nil, nil,
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(detail), false, false),
			nil, nil,
		),
	}

	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Agent", false, false))
	btn.URL = url
	blocks = append(blocks, goslack.NewActionBlock("", btn))
	return blocks
}

// BuildPausedMessage creates Block Kit blocks announcing that an agent was
// paused after exhausting its consecutive-failure budget (spec.md §4.1).
func BuildPausedMessage(input PausedInput, dashboardURL string) []goslack.Block {
	headline := fmt.Sprintf(":no_entry_sign: *%s paused after %d consecutive iteration failures*",
		input.AgentName, input.ConsecutiveFailures)

	var blocks []goslack.Block
	blocks = append(blocks, goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, headline, false, false),
		nil, nil,
	))
	if input.LastFailReason != "" {
		detail := fmt.Sprintf("last failure: %s", input.LastFailReason)
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(detail), false, false),
			nil, nil,
		))
	}

	url := agentURL(input.AgentID, dashboardURL)
	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Agent", false, false))
	btn.URL = url
	blocks = append(blocks, goslack.NewActionBlock("", btn))
	return blocks
}

func truncateForSlack(text string) string {
	runes := []rune(text)
	if len(runes) <= maxBlockTextLength {
		return text
	}
	return string(runes[:maxBlockTextLength]) + "\n\n_... (truncated — view agent in dashboard)_"
}
