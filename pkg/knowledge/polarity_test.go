package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegativePolarity(t *testing.T) {
	t.Run("cautionary language is negative", func(t *testing.T) {
		assert.True(t, negativePolarity("avoid entering after a VWAP bounce gap"))
		assert.True(t, negativePolarity("Don't hold past the opening range"))
		assert.True(t, negativePolarity("reduce size on low-volume days"))
	})

	t.Run("endorsing language is not negative", func(t *testing.T) {
		assert.False(t, negativePolarity("VWAP bounce entries perform well in the first hour"))
	})
}

func TestEnsureAvoidPhrasing(t *testing.T) {
	t.Run("already-negative text is returned unchanged", func(t *testing.T) {
		assert.Equal(t, "avoid chasing breakouts", ensureAvoidPhrasing("avoid chasing breakouts"))
	})

	t.Run("positive text is rephrased with an avoid prefix", func(t *testing.T) {
		assert.Equal(t, "avoid exiting too early on strong trends", ensureAvoidPhrasing("Exiting too early on strong trends"))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", ensureAvoidPhrasing("   "))
	})
}

func TestMentionedTemplateTags(t *testing.T) {
	t.Run("detects an underscore tag written with a space", func(t *testing.T) {
		tags := mentionedTemplateTags("the time based template exited too early")
		assert.Contains(t, tags, "time_based")
	})

	t.Run("detects a tag written verbatim", func(t *testing.T) {
		tags := mentionedTemplateTags("atr_adaptive sized positions well")
		assert.Contains(t, tags, "atr_adaptive")
	})

	t.Run("returns nothing when no tag is mentioned", func(t *testing.T) {
		assert.Empty(t, mentionedTemplateTags("general market commentary"))
	})
}

func TestTemplateTagInsight(t *testing.T) {
	t.Run("narrows a multi-template comparison to the tag's own sentences", func(t *testing.T) {
		comparison := "atr_adaptive held winners longer and posted the best profit factor. " +
			"time_based cut trades at a fixed bar count and left gains on the table."

		atrInsight := templateTagInsight(comparison, "atr_adaptive")
		timeInsight := templateTagInsight(comparison, "time_based")

		assert.Contains(t, atrInsight, "best profit factor")
		assert.NotContains(t, atrInsight, "fixed bar count")
		assert.Contains(t, timeInsight, "fixed bar count")
		assert.NotContains(t, timeInsight, "best profit factor")
		assert.NotEqual(t, atrInsight, timeInsight, "distinct tags must not collapse under Jaccard dedup")
	})

	t.Run("falls back to the full comparison prefixed with the tag when no sentence mentions it", func(t *testing.T) {
		comparison := "general commentary unrelated to any specific template this week"

		insight := templateTagInsight(comparison, "atr_adaptive")
		assert.True(t, strings.HasPrefix(insight, "atr_adaptive: "))
		assert.Contains(t, insight, comparison)
	})
}
