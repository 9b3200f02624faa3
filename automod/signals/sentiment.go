package signals

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
)

// SentimentAnalyzer assigns a Positive/Negative/Neutral label using a VADER
// model. It runs in-process; a zero score maps to Neutral.
type SentimentAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

func (sa *SentimentAnalyzer) Label(text string) string {
	scores := sa.analyzer.PolarityScores(PreprocessText(text))
	switch {
	case scores.Compound > 0:
		return SentimentPositive
	case scores.Compound < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// PreprocessText normalizes text before sentiment scoring: lowercase, URLs
// removed, punctuation stripped. Emoji pass through untouched; the VADER
// lexicon scores them directly, no demojizing step needed.
func PreprocessText(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
