// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package i18n provides locale-aware printers for CLI output.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
}

var matcher = language.NewMatcher(supported)

// MatchLanguage picks the best supported tag for an Accept-Language or
// POSIX locale string such as "de_DE.UTF-8".
func MatchLanguage(pref string) language.Tag {
	pref = strings.TrimSpace(pref)
	if i := strings.IndexByte(pref, '.'); i >= 0 {
		pref = pref[:i]
	}
	pref = strings.ReplaceAll(pref, "_", "-")
	if pref == "" || pref == "C" || pref == "POSIX" {
		return language.English
	}
	tag, _ := language.MatchStrings(matcher, pref)
	base, _ := tag.Base()
	return language.Make(base.String())
}

// NewPrinter returns a printer for tag.
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// NewCLIPrinter returns a printer for the locale found in LC_ALL,
// LC_MESSAGES or LANG.
func NewCLIPrinter() *message.Printer {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); v != "" {
			return NewPrinter(MatchLanguage(v))
		}
	}
	return NewPrinter(language.English)
}
