// Package voice selects the best matching synthesis voice for a language and gender.
package voice

import "strings"

// Language tags with special handling.
const (
	TagEnglishUS     = "en-US"
	TagEnglishIndia  = "en-IN"
	TagHindi         = "hi-IN"
	TagMarathi       = "mr-IN"
	TagTamil         = "ta-IN"
	TagRajasthani    = "ra-IN"
	TagBhojpuri      = "bh-IN"
	genericEnglish   = "en"
	regionIndiaToken = "IN"
)

// languageNames maps language tags to the names used in translation prompts.
// Rajasthani and Bhojpuri translate to Hindi.
var languageNames = map[string]string{
	TagEnglishUS:    "English (US)",
	TagEnglishIndia: "English (India)",
	TagHindi:        "Hindi",
	TagMarathi:      "Marathi",
	TagTamil:        "Tamil",
	TagRajasthani:   "Hindi",
	TagBhojpuri:     "Hindi",
}

// fallbackTags lists under-supported speech languages and the tag whose voices stand in for them.
var fallbackTags = map[string]string{
	TagRajasthani: TagHindi,
	TagBhojpuri:   TagHindi,
}

// LanguageName returns the display name of a language tag, or the tag itself when unknown.
func LanguageName(tag string) string {
	name, ok := languageNames[tag]
	if !ok {
		return tag
	}

	return name
}

// Languages returns the known language tags in display order.
func Languages() []string {
	return []string{
		TagEnglishUS, TagEnglishIndia, TagHindi, TagMarathi, TagTamil, TagRajasthani, TagBhojpuri,
	}
}

// FallbackTag returns the substitute tag for an under-supported language.
func FallbackTag(tag string) (string, bool) {
	fallback, ok := fallbackTags[tag]

	return fallback, ok
}

// SameTag reports whether two language tags denote the same locale.
// Comparison ignores case and treats "_" as "-".
func SameTag(a, b string) bool {
	return strings.EqualFold(normalizeTag(a), normalizeTag(b))
}

// IsIndianRegion reports whether a tag names an Indian locale.
func IsIndianRegion(tag string) bool {
	return strings.Contains(tag, regionIndiaToken)
}

func normalizeTag(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
}

func isGenericEnglish(tag string) bool {
	return strings.HasPrefix(strings.ToLower(normalizeTag(tag)), genericEnglish)
}
