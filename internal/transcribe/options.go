package transcribe

import "strings"

type Language string

const (
	LanguageAuto     Language = "auto"
	LanguageEnglish  Language = "en"
	LanguageChinese  Language = "zh"
	LanguageJapanese Language = "ja"
	LanguageKorean   Language = "ko"
	LanguageFrench   Language = "fr"
	LanguageGerman   Language = "de"
	LanguageSpanish  Language = "es"
)

var languages = []Language{
	LanguageAuto, LanguageEnglish, LanguageChinese, LanguageJapanese,
	LanguageKorean, LanguageFrench, LanguageGerman, LanguageSpanish,
}

// ParseLanguage accepts a code in any case.
func ParseLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range languages {
		if string(l) == code {
			return l, true
		}
	}
	return "", false
}

type Options struct {
	// Language is empty for engine default.
	Language         Language
	ModelPath        string
	Temperature      float64
	EnableTimestamps bool
	Prompt           string
}

func DefaultOptions() Options {
	return Options{EnableTimestamps: true}
}

// Normalize clamps Temperature into [0, 1].
func (o Options) Normalize() Options {
	switch {
	case o.Temperature < 0 || o.Temperature != o.Temperature:
		o.Temperature = 0
	case o.Temperature > 1:
		o.Temperature = 1
	}
	return o
}
