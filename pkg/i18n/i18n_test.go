package i18n

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDirection(t *testing.T) {
	assert.Equal(t, RTL, NewFormatter("ar-EG", "EGP").Direction())
	assert.Equal(t, RTL, NewFormatter("he", "ILS").Direction())
	assert.Equal(t, LTR, NewFormatter("en-US", "USD").Direction())
	assert.Equal(t, LTR, NewFormatter("not a culture", "").Direction())
}

func TestFormatNumberGroupsDigits(t *testing.T) {
	assert.Equal(t, "1,234.50", NewFormatter("en-US", "USD").FormatNumber(1234.5, 2))
	assert.Equal(t, "1.234,50", NewFormatter("de-DE", "EUR").FormatNumber(1234.5, 2))
	assert.Equal(t, "1,234", NewFormatter("en-US", "USD").FormatInt(1234))
}

func TestFormatMoneyContainsAmount(t *testing.T) {
	out := NewFormatter("en-US", "USD").FormatMoney(decimal.RequireFromString("1500.5"))
	assert.Contains(t, out, "1,500.50")
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jan 9, 2024", NewFormatter("en-US", "USD").FormatDate(d))
	assert.Equal(t, "09/01/2024", NewFormatter("ar-EG", "EGP").FormatDate(d))
	assert.Equal(t, "", NewFormatter("en-US", "USD").FormatDate(time.Time{}))
}

func TestResolverPrefersCookieThenHeader(t *testing.T) {
	r := NewResolver("en-US", []string{"en-US", "ar-EG"}, "EGP")

	assert.Equal(t, "ar-EG", r.Resolve("ar-EG", "en-US").Culture())
	assert.Equal(t, "ar-EG", r.Resolve("", "ar;q=0.9, en;q=0.5").Culture())
	assert.Equal(t, "en-US", r.Resolve("", "ja").Culture())
}
