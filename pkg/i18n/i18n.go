// Package i18n formats numbers, money and dates for a culture and reports
// its text direction.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Direction is the writing direction of a culture.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

var rtlScripts = map[string]struct{}{
	"Arab": {}, "Hebr": {}, "Thaa": {}, "Syrc": {}, "Nkoo": {}, "Adlm": {}, "Rohg": {}, "Mand": {},
}

var dateLayouts = map[string]string{
	"en": "Jan 2, 2006",
	"ar": "02/01/2006",
	"fr": "02/01/2006",
	"de": "02.01.2006",
}

// Formatter is bound to a single culture.
type Formatter struct {
	tag      language.Tag
	printer  *message.Printer
	currency currency.Unit
}

// NewFormatter parses culture (BCP 47) and the ISO currency code. Unknown
// inputs fall back to en-US and USD.
func NewFormatter(culture, currencyCode string) *Formatter {
	tag, err := language.Parse(culture)
	if err != nil {
		tag = language.AmericanEnglish
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag), currency: unit}
}

// Culture returns the canonical culture name.
func (f *Formatter) Culture() string {
	return f.tag.String()
}

// Direction reports rtl for cultures written in a right-to-left script.
func (f *Formatter) Direction() Direction {
	script, _ := f.tag.Script()
	if _, ok := rtlScripts[script.String()]; ok {
		return RTL
	}
	return LTR
}

// FormatNumber groups digits and fixes the number of fraction digits.
func (f *Formatter) FormatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return f.printer.Sprint(number.Decimal(v, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals)))
}

// FormatInt groups digits of an integer.
func (f *Formatter) FormatInt(v int64) string {
	return f.printer.Sprintf("%d", v)
}

// FormatMoney renders a decimal amount with the culture currency symbol.
func (f *Formatter) FormatMoney(amount decimal.Decimal) string {
	symbol := f.printer.Sprint(currency.Symbol(f.currency))
	value := f.FormatNumber(amount.InexactFloat64(), 2)
	if f.Direction() == RTL {
		return fmt.Sprintf("%s %s", value, symbol)
	}
	return fmt.Sprintf("%s %s", symbol, value)
}

// FormatDate renders a calendar date using the culture's short layout.
func (f *Formatter) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	base, _ := f.tag.Base()
	layout, ok := dateLayouts[base.String()]
	if !ok {
		layout = "2006-01-02"
	}
	return t.Format(layout)
}

// Resolver picks the best supported culture for a request.
type Resolver struct {
	supported []language.Tag
	matcher   language.Matcher
	currency  string
}

// NewResolver builds a resolver. The first supported culture is the default.
func NewResolver(defaultCulture string, supported []string, currencyCode string) *Resolver {
	tags := make([]language.Tag, 0, len(supported)+1)
	if tag, err := language.Parse(defaultCulture); err == nil {
		tags = append(tags, tag)
	}
	for _, s := range supported {
		tag, err := language.Parse(strings.TrimSpace(s))
		if err != nil || containsTag(tags, tag) {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		tags = append(tags, language.AmericanEnglish)
	}
	return &Resolver{supported: tags, matcher: language.NewMatcher(tags), currency: currencyCode}
}

// Resolve matches the explicit culture preference first, then Accept-Language.
func (r *Resolver) Resolve(preferred ...string) *Formatter {
	_, index := language.MatchStrings(r.matcher, preferred...)
	return NewFormatter(r.supported[index].String(), r.currency)
}

func containsTag(tags []language.Tag, tag language.Tag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
