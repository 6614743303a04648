// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, language.English, MatchLanguage(""))
	assert.Equal(t, language.English, MatchLanguage("C"))
	assert.Equal(t, language.English, MatchLanguage("POSIX"))
	assert.Equal(t, language.German, MatchLanguage("de_DE.UTF-8"))
	assert.Equal(t, language.French, MatchLanguage("fr-CA,fr;q=0.9"))
}

func TestCLIPrinter(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "en_US.UTF-8")

	p := NewCLIPrinter()
	assert.Equal(t, "--packets-gt 100", p.Sprintf("--packets-gt %d", 100))
}
