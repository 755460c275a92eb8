// Package locale renders timestamps and user-facing messages for the configured
// reviewer locale.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Browser-style combined date and time layouts.
const (
	layoutUS        = "1/2/2006, 3:04:05 PM"
	layoutDayFirst  = "02/01/2006, 15:04:05"
	layoutIndia     = "2/1/2006, 3:04:05 pm"
	layoutGerman    = "2.1.2006, 15:04:05"
	layoutNoComma   = "02/01/2006 15:04:05"
	defaultLanguage = "en-US"
)

// Locale formats times in one zone and translates catalog messages for one language.
type Locale struct {
	tag     language.Tag
	msgTag  language.Tag
	zone    *time.Location
	layout  string
	catalog catalog.Catalog
}

// New resolves tag (BCP 47, e.g. "en-GB") and zone ("Local", "UTC", or an IANA name).
func New(tag, zone string) (*Locale, error) {
	if tag == "" {
		tag = defaultLanguage
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", tag, err)
	}

	loc, err := loadZone(zone)
	if err != nil {
		return nil, err
	}

	cat, err := newCatalog()
	if err != nil {
		return nil, err
	}
	matched, _, _ := language.NewMatcher(catalogLanguages).Match(parsed)
	msgBase, _ := matched.Base()

	return &Locale{
		tag:     parsed,
		msgTag:  language.Make(msgBase.String()),
		zone:    loc,
		layout:  layoutFor(parsed),
		catalog: cat,
	}, nil
}

// MustNew is New for tests and fixed configurations.
func MustNew(tag, zone string) *Locale {
	l, err := New(tag, zone)
	if err != nil {
		panic(err)
	}
	return l
}

func loadZone(zone string) (*time.Location, error) {
	switch zone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return loc, nil
}

func layoutFor(tag language.Tag) string {
	base, _ := tag.Base()
	region, _ := tag.Region()
	switch base.String() {
	case "en":
		switch region.String() {
		case "US", "ZZ":
			return layoutUS
		case "IN":
			return layoutIndia
		default:
			return layoutDayFirst
		}
	case "hi":
		return layoutIndia
	case "de":
		return layoutGerman
	case "pt", "fr":
		return layoutNoComma
	default:
		return layoutUS
	}
}

// Format renders t in the configured zone and layout.
func (l *Locale) Format(t time.Time) string {
	return t.In(l.zone).Format(l.layout)
}

// Tag is the configured locale.
func (l *Locale) Tag() language.Tag { return l.tag }

// Language is the catalog language messages are rendered in.
func (l *Locale) Language() language.Tag { return l.msgTag }

// Sprintf renders a catalog message. Keys missing from the catalog are formatted as is.
func (l *Locale) Sprintf(key string, args ...any) string {
	p := message.NewPrinter(l.msgTag, message.Catalog(l.catalog))
	return p.Sprintf(key, args...)
}
