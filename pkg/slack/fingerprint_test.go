package slack

import (
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase",
			input:    "Agent GRADUATED to paper_trading",
			expected: "agent graduated to paper_trading",
		},
		{
			name:     "collapse whitespace",
			input:    "agent   paused\t\tafter\n\nfailures",
			expected: "agent paused after failures",
		},
		{
			name:     "trim",
			input:    "  vwap-agent  ",
			expected: "vwap-agent",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "mixed case and whitespace",
			input:    "  PAUSED:   vwap-agent   after 5 failures  ",
			expected: "paused: vwap-agent after 5 failures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeText(tt.input))
		})
	}
}

func TestCollectMessageText(t *testing.T) {
	tests := []struct {
		name     string
		msg      goslack.Message
		expected string
	}{
		{
			name: "text only",
			msg: goslack.Message{
				Msg: goslack.Msg{Text: "vwap-agent graduated: learning -> paper_trading"},
			},
			expected: "vwap-agent graduated: learning -> paper_trading",
		},
		{
			name: "text with attachment text",
			msg: goslack.Message{
				Msg: goslack.Msg{
					Text: "vwap-agent paused after 5 consecutive iteration failures",
					Attachments: []goslack.Attachment{
						{Text: "last failure: sandbox timeout"},
					},
				},
			},
			expected: "vwap-agent paused after 5 consecutive iteration failures last failure: sandbox timeout",
		},
		{
			name: "text with attachment fallback",
			msg: goslack.Message{
				Msg: goslack.Msg{
					Text: "vwap-agent graduated: paper_trading -> live_trading",
					Attachments: []goslack.Attachment{
						{Fallback: "win rate 58.0% sharpe 1.20 total return 12.50%"},
					},
				},
			},
			expected: "vwap-agent graduated: paper_trading -> live_trading win rate 58.0% sharpe 1.20 total return 12.50%",
		},
		{
			name: "attachment with both text and fallback",
			msg: goslack.Message{
				Msg: goslack.Msg{
					Attachments: []goslack.Attachment{
						{Text: "win rate 58.0%", Fallback: "win rate 58.0% fallback"},
					},
				},
			},
			expected: "win rate 58.0% win rate 58.0% fallback",
		},
		{
			name:     "empty message",
			msg:      goslack.Message{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, collectMessageText(tt.msg))
		})
	}
}
