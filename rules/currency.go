package rules

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseCurrency is the currency every stored amount is recorded in.
const BaseCurrency = "INR"

var ErrUnknownCurrency = errors.New("unknown currency")

type Currency struct {
	Unit   currency.Unit
	Symbol string
	// Rate is units of this currency per one unit of BaseCurrency.
	Rate   float64
	Locale language.Tag
}

func (c Currency) Code() string { return c.Unit.String() }

// CurrencyTable is an immutable set of fixed conversion rates.
type CurrencyTable struct {
	base    string
	entries map[string]Currency
}

// Currencies is the table the service ships with. Rates are configuration
// constants; nothing looks them up at runtime.
var Currencies = MustCurrencyTable(BaseCurrency, []Currency{
	{Unit: currency.INR, Symbol: "₹", Rate: 1, Locale: language.MustParse("en-IN")},
	{Unit: currency.USD, Symbol: "$", Rate: 0.012, Locale: language.AmericanEnglish},
	{Unit: currency.EUR, Symbol: "€", Rate: 0.011, Locale: language.German},
	{Unit: currency.GBP, Symbol: "£", Rate: 0.0095, Locale: language.BritishEnglish},
	{Unit: currency.AUD, Symbol: "A$", Rate: 0.018, Locale: language.MustParse("en-AU")},
	{Unit: currency.JPY, Symbol: "¥", Rate: 1.8, Locale: language.Japanese},
})

func NewCurrencyTable(base string, list []Currency) (*CurrencyTable, error) {
	t := &CurrencyTable{entries: make(map[string]Currency, len(list))}
	for _, c := range list {
		if !(c.Rate > 0) {
			return nil, fmt.Errorf("currency %s: rate must be positive", c.Code())
		}
		t.entries[c.Code()] = c
	}
	code, err := normalizeCode(base)
	if err != nil {
		return nil, err
	}
	b, ok := t.entries[code]
	if !ok {
		return nil, fmt.Errorf("%w: base %s not in table", ErrUnknownCurrency, code)
	}
	if b.Rate != 1 {
		return nil, fmt.Errorf("base currency %s must have rate 1", code)
	}
	t.base = code
	return t, nil
}

func MustCurrencyTable(base string, list []Currency) *CurrencyTable {
	t, err := NewCurrencyTable(base, list)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *CurrencyTable) Base() string { return t.base }

// Codes lists supported codes in alphabetical order.
func (t *CurrencyTable) Codes() []string {
	codes := make([]string, 0, len(t.entries))
	for code := range t.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (t *CurrencyTable) Lookup(code string) (Currency, error) {
	norm, err := normalizeCode(code)
	if err != nil {
		return Currency{}, err
	}
	c, ok := t.entries[norm]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, norm)
	}
	return c, nil
}

// Resolve returns the first supported code among candidates, else the base.
// Empty candidates are skipped, so callers can pass request and preference
// values without checking them first.
func (t *CurrencyTable) Resolve(candidates ...string) string {
	for _, cand := range candidates {
		if strings.TrimSpace(cand) == "" {
			continue
		}
		if c, err := t.Lookup(cand); err == nil {
			return c.Code()
		}
	}
	return t.base
}

// Convert moves amount between two supported currencies via the base. An
// empty from means the base currency.
func (t *CurrencyTable) Convert(amount float64, from, to string) (float64, error) {
	if from == "" {
		from = t.base
	}
	src, err := t.Lookup(from)
	if err != nil {
		return 0, err
	}
	dst, err := t.Lookup(to)
	if err != nil {
		return 0, err
	}
	return amount / src.Rate * dst.Rate, nil
}

// Format renders a base-currency amount in display, rounded to whole units
// and grouped for the currency's locale. An unsupported display currency
// falls back to the base.
func (t *CurrencyTable) Format(amountInBase float64, display string) string {
	c, err := t.Lookup(display)
	if err != nil {
		c = t.entries[t.base]
	}
	if math.IsNaN(amountInBase) || math.IsInf(amountInBase, 0) {
		amountInBase = 0
	}
	whole := int64(math.Round(clampUnits(amountInBase * c.Rate)))
	p := message.NewPrinter(c.Locale)
	if whole < 0 {
		return "-" + c.Symbol + p.Sprintf("%d", -whole)
	}
	return c.Symbol + p.Sprintf("%d", whole)
}

// maxDisplayUnits keeps Format's integer conversion well inside int64.
const maxDisplayUnits = 1e15

func clampUnits(v float64) float64 {
	return math.Max(-maxDisplayUnits, math.Min(v, maxDisplayUnits))
}

func normalizeCode(code string) (string, error) {
	u, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return u.String(), nil
}
