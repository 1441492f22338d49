package voice

import (
	"strings"

	"github.com/book-expert/speech-translator/internal/core"
)

// Step records which rule of the resolution order produced a voice.
type Step int

// Resolution steps in priority order.
const (
	StepNone Step = iota
	StepGenderAndAccent
	StepGender
	StepFallbackLanguage
	StepLanguageOnly
	StepGenericEnglish
)

// SubstitutionNotice is shown when an under-supported language is spoken with fallback voices.
const SubstitutionNotice = "Rajasthani/Bhojpuri speech voices not directly supported. " +
	"Attempting Hindi (Indian accent)."

// Name cues, matched against lower-cased voice names.
var (
	accentCues = []string{"india", "indian", "google", "microsoft", "sangeeta", "ravi"}
	// indianEnglishCues decide the en-IN default language.
	indianEnglishCues = []string{"india", "indian", "google"}
	maleCues   = []string{"male", "boy", "david", "ravi"}
	femaleCues = []string{"female", "girl", "zira", "sangeeta"}
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Voice *core.Voice
	Step  Step
	// Substituted is set when the requested language was in the fallback set.
	Substituted bool
	FallbackTag string
}

// Found reports whether a voice was selected.
func (r Resolution) Found() bool {
	return r.Voice != nil
}

// GenericEnglish reports whether the voice came from the generic English fallback.
func (r Resolution) GenericEnglish() bool {
	return r.Step == StepGenericEnglish
}

// Resolve selects the best voice for languageTag and gender. The first match in
// priority order wins and ties are broken by list order:
//
//  1. same tag, gender cue and accent cue
//  2. same tag and gender cue
//  3. for under-supported tags, steps 1-2 against the fallback tag
//  4. same tag, any voice
//  5. any voice whose tag starts with "en"
func Resolve(voices []core.Voice, languageTag string, gender core.Gender) Resolution {
	if len(voices) == 0 {
		return Resolution{Voice: nil, Step: StepNone, Substituted: false, FallbackTag: ""}
	}

	var result Resolution

	if found := find(voices, languageTag, gender, true); found != nil {
		result.Voice, result.Step = found, StepGenderAndAccent

		return result
	}

	if found := find(voices, languageTag, gender, false); found != nil {
		result.Voice, result.Step = found, StepGender

		return result
	}

	if fallback, ok := FallbackTag(languageTag); ok {
		result.Substituted = true
		result.FallbackTag = fallback

		found := find(voices, fallback, gender, true)
		if found == nil {
			found = find(voices, fallback, gender, false)
		}

		if found != nil {
			result.Voice, result.Step = found, StepFallbackLanguage

			return result
		}
	}

	for i := range voices {
		if SameTag(voices[i].Lang, languageTag) {
			result.Voice, result.Step = &voices[i], StepLanguageOnly

			return result
		}
	}

	for i := range voices {
		if isGenericEnglish(voices[i].Lang) {
			result.Voice, result.Step = &voices[i], StepGenericEnglish

			return result
		}
	}

	return result
}

// HasAccentCue reports whether a voice name suggests a regional Indian accent.
func HasAccentCue(name string) bool {
	return containsAny(strings.ToLower(name), accentCues)
}

// MatchesGender reports whether a voice name carries a cue for gender.
// A "female" cue is never read as "male".
func MatchesGender(name string, gender core.Gender) bool {
	lower := strings.ToLower(name)

	switch gender {
	case core.GenderMale:
		return containsAny(strings.ReplaceAll(lower, "female", ""), maleCues)
	case core.GenderFemale:
		return containsAny(lower, femaleCues)
	default:
		return false
	}
}

// HasIndianEnglishVoice reports whether an en-IN voice named as Indian or Google is available.
func HasIndianEnglishVoice(voices []core.Voice) bool {
	for _, candidate := range voices {
		if SameTag(candidate.Lang, TagEnglishIndia) &&
			containsAny(strings.ToLower(candidate.Name), indianEnglishCues) {
			return true
		}
	}

	return false
}

func find(voices []core.Voice, tag string, gender core.Gender, requireAccent bool) *core.Voice {
	for i := range voices {
		candidate := &voices[i]
		if !SameTag(candidate.Lang, tag) || !MatchesGender(candidate.Name, gender) {
			continue
		}

		if requireAccent && !HasAccentCue(candidate.Name) {
			continue
		}

		return candidate
	}

	return nil
}

func containsAny(value string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(value, cue) {
			return true
		}
	}

	return false
}
