package coach

import (
	"regexp"
	"strings"
)

// Intent is what a chat message asks the coach to do.
type Intent string

const (
	IntentProfileUpdate Intent = "profile_update"
	IntentBodyFat       Intent = "body_fat"
	IntentMealLog       Intent = "meal_log"
	IntentQuestion      Intent = "question"
)

// Go's \b only knows ASCII word characters, so Hangul terms are matched without it.
var intentRules = []struct {
	intent  Intent
	pattern *regexp.Regexp
}{
	{IntentProfileUpdate, regexp.MustCompile(`\b(?:update[sd]?|change[sd]?)\b|\b(?:set|modify)\s+(?:my\s+)?(?:goal|weight|height|age|activity)\b|업데이트|변경|수정`)},
	{IntentBodyFat, regexp.MustCompile(`\b(?:neck|waist)\b|목\s*둘레|허리`)},
	{IntentMealLog, mealWeightPattern},
}

var mealWeightPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:grams?\b|g\b|그램)`)

// mutatesProfile reports whether handling the intent rewrites the stored profile.
func (i Intent) mutatesProfile() bool {
	return i == IntentProfileUpdate || i == IntentBodyFat
}

// Classify returns the intent of the first rule the lower-cased message matches, and
// IntentQuestion when none does.
func Classify(message string) Intent {
	text := strings.ToLower(message)
	for _, rule := range intentRules {
		if rule.pattern.MatchString(text) {
			return rule.intent
		}
	}
	return IntentQuestion
}
