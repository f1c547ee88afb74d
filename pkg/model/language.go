package model

// Language is one of the fixed set of supported language codes.
type Language string

const (
	LangEnglish  Language = "en"
	LangItalian  Language = "it"
	LangGeorgian Language = "ka"
	LangPersian  Language = "fa"
)

// Languages lists the supported codes in display order.
var Languages = []Language{LangEnglish, LangItalian, LangGeorgian, LangPersian}

// ParseLanguage maps a code to a Language, falling back to English.
func ParseLanguage(code string) Language {
	for _, l := range Languages {
		if string(l) == code {
			return l
		}
	}
	return LangEnglish
}

// RTL reports whether the language is written right-to-left.
func (l Language) RTL() bool {
	return l == LangPersian
}

// LText is an immutable localized string carrier with one value per
// supported language.
type LText struct {
	EN string `json:"en"`
	IT string `json:"it"`
	KA string `json:"ka"`
	FA string `json:"fa"`
}

// Resolve returns the string for the given language.
func (t LText) Resolve(lang Language) string {
	switch lang {
	case LangItalian:
		return t.IT
	case LangGeorgian:
		return t.KA
	case LangPersian:
		return t.FA
	default:
		return t.EN
	}
}
