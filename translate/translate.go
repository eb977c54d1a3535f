// Package translate formats user facing messages for the locale of the
// running process.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	tag     language.Tag
	printer *message.Printer
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("maf: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag = message.MatchLanguage(locales...)
	printer = message.NewPrinter(tag)
}

// Language returns the language messages are formatted for.
func Language() language.Tag {
	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
