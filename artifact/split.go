package artifact

import "strings"

// Separators the extraction prompts ask the model to emit between templates.
const (
	FeatureSeparator = "---FEATURE_SEPARATOR---"
	StorySeparator   = "---STORY_SEPARATOR---"
)

// minSplitLength drops fragments too short to be a filled template.
const minSplitLength = 100

// Split breaks extraction output on sep and keeps trimmed parts longer than
// 100 characters.
func Split(text, sep string) []string {
	var parts []string
	for _, part := range strings.Split(text, sep) {
		part = strings.TrimSpace(part)
		if len(part) > minSplitLength {
			parts = append(parts, part)
		}
	}
	return parts
}
