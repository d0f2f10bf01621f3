package translit

import "strings"

// letters maps Arabic letters and orthographic variants to Latin tokens.
// Hamza carriers collapse onto their base vowels so transliterated search
// keys stay stable across spelling variants.
var letters = map[rune]string{
	'ء': "'",  // ء hamza
	'آ': "a",  // آ alef madda
	'أ': "a",  // أ alef hamza above
	'ؤ': "w",  // ؤ waw hamza
	'إ': "i",  // إ alef hamza below
	'ئ': "y",  // ئ yeh hamza
	'ا': "a",  // ا alef
	'ب': "b",  // ب beh
	'ة': "a",  // ة teh marbuta
	'ت': "t",  // ت teh
	'ث': "th", // ث theh
	'ج': "j",  // ج jeem
	'ح': "h",  // ح hah
	'خ': "kh", // خ khah
	'د': "d",  // د dal
	'ذ': "dh", // ذ thal
	'ر': "r",  // ر reh
	'ز': "z",  // ز zain
	'س': "s",  // س seen
	'ش': "sh", // ش sheen
	'ص': "s",  // ص sad
	'ض': "d",  // ض dad
	'ط': "t",  // ط tah
	'ظ': "z",  // ظ zah
	'ع': "a",  // ع ain
	'غ': "gh", // غ ghain
	'ف': "f",  // ف feh
	'ق': "q",  // ق qaf
	'ك': "k",  // ك kaf
	'ل': "l",  // ل lam
	'م': "m",  // م meem
	'ن': "n",  // ن noon
	'ه': "h",  // ه heh
	'و': "w",  // و waw
	'ى': "a",  // ى alef maqsura
	'ي': "y",  // ي yeh
	'پ': "p",  // پ peh
	'چ': "ch", // چ tcheh
	'ڤ': "v",  // ڤ veh
	'گ': "g",  // گ gaf
	'ی': "y",  // ی farsi yeh
}

// punctuation maps Arabic punctuation to its ASCII counterpart.
var punctuation = map[rune]string{
	'،': ",", // ، comma
	'؛': ";", // ؛ semicolon
	'؟': "?", // ؟ question mark
	'ـ': "",  // ـ tatweel
}

// Transliterate returns a Latin approximation of the input. Diacritics are
// stripped, Arabic-Indic digits become ASCII digits, and every unmapped rune
// passes through unchanged. It never fails.
func Transliterate(title string) string {
	var out strings.Builder
	out.Grow(len(title))
	for _, r := range title {
		switch {
		case isDiacritic(r):
			// dropped
		case r >= '٠' && r <= '٩': // ٠-٩
			out.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹': // ۰-۹
			out.WriteRune('0' + (r - '۰'))
		default:
			if mapped, ok := letters[r]; ok {
				out.WriteString(mapped)
			} else if mapped, ok := punctuation[r]; ok {
				out.WriteString(mapped)
			} else {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

// isDiacritic reports Arabic harakat, shadda, sukun, and superscript alef.
func isDiacritic(r rune) bool {
	return (r >= 'ً' && r <= 'ْ') || r == 'ٰ'
}
