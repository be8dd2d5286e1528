package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName renders a dancer or source key for reports: underscores and
// hyphens become spaces and words are title-cased.
func DisplayName(key string) string {
	if key == "" {
		return ""
	}
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(key)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return titleCaser.String(cleaned)
}
