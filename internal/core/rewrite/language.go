// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rewrite

import (
	"strings"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
)

// Language is the output language of rewritten dialogue.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageVietnamese Language = "vi"
)

// DefaultLanguage is active until a client switches it.
const DefaultLanguage = LanguageVietnamese

// ErrUnsupportedLanguage is returned by [ParseLanguage].
var ErrUnsupportedLanguage = apperr.ValidationError("Unsupported language", apperr.FieldError{
	Field:   "language",
	Message: "must be one of: en, vi",
})

// ParseLanguage accepts a language code case-insensitively.
func ParseLanguage(code string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageVietnamese:
		return LanguageVietnamese, nil
	default:
		return "", ErrUnsupportedLanguage
	}
}

// NoDialogueLabel is the localised label clients show next to a page whose
// result is [NoDialogue].
func (language Language) NoDialogueLabel() string {
	if language == LanguageVietnamese {
		return "Không tìm thấy lời thoại."
	}
	return "No dialogue detected."
}

// Instruction returns the system instruction template for the language.
// Unknown languages fall back to [DefaultLanguage].
func (language Language) Instruction() string {
	switch language {
	case LanguageEnglish:
		return instructionEnglish
	default:
		return instructionVietnamese
	}
}
