package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// Script is the coarse script class used to select a matching strategy.
type Script string

const (
	ScriptLatin    Script = "latin"
	ScriptNonLatin Script = "non_latin"
)

// Classification describes the dominant script of a title.
type Classification struct {
	Primary Script
	Mixed   bool
	// ScriptName is the detected Unicode script ("Latin", "Arabic", ...)
	// for logs and the audit trail. Empty when detection is inconclusive.
	ScriptName string
	// Hint is the ISO 639-1 language hint passed to provider searches.
	Hint string
}

type arabicRange struct {
	lo, hi rune
}

// Arabic letter blocks, including presentation forms.
var arabicRanges = []arabicRange{
	{0x0600, 0x06FF},
	{0x0750, 0x077F},
	{0xFB50, 0xFDFF},
	{0xFE70, 0xFEFF},
}

func isArabic(r rune) bool {
	for _, rng := range arabicRanges {
		if r >= rng.lo && r <= rng.hi {
			return true
		}
	}
	return false
}

func isLatinLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// Classify inspects a title with the default mixed-script policy: a title is
// mixed whenever both script classes appear.
func Classify(title string) Classification {
	return ClassifyWithThreshold(title, 0)
}

// ClassifyWithThreshold classifies a title, marking it mixed only when the
// minority script exceeds mixedPercent of the title's letters. Digits,
// punctuation, and whitespace are neutral; empty or letterless titles
// classify Latin.
func ClassifyWithThreshold(title string, mixedPercent int) Classification {
	var latin, arabic int
	for _, r := range title {
		switch {
		case isArabic(r):
			arabic++
		case isLatinLetter(r):
			latin++
		}
	}

	cls := Classification{Primary: ScriptLatin, Hint: "en"}
	total := latin + arabic
	if total == 0 {
		return cls
	}

	if arabic > latin {
		cls.Primary = ScriptNonLatin
		cls.Hint = "ar"
	}

	minority := latin
	if cls.Primary == ScriptLatin {
		minority = arabic
	}
	if minority > 0 && minority*100 >= mixedPercent*total {
		cls.Mixed = true
	}

	if script := whatlanggo.DetectScript(title); script != nil {
		cls.ScriptName = whatlanggo.Scripts[script]
	}
	return cls
}

// BaseCode reduces a language tag like "en-US" to its base code "en" for
// comparisons against provider original_language values.
func BaseCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}
