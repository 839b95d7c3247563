package coach

import "github.com/mifdirfan/PocketCoach/pkg/model"

// ApplyUpdatesForTest returns the changed fields as "field=value" pairs.
func ApplyUpdatesForTest(profile *model.UserProfile, message string) []string {
	var out []string
	for _, ch := range applyUpdates(profile, message) {
		out = append(out, ch.field+"="+ch.value)
	}
	return out
}

func ParseCircumferencesForTest(message string) (float64, float64, bool) {
	return parseCircumferences(message)
}

func ProfileSummaryForTest(p *model.UserProfile) string {
	return profileSummary(p)
}
