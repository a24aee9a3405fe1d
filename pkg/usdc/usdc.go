// Package usdc handles 6-decimal fixed-point amounts for the reserve
// currency. Note balances share the same unit scale, so one conversion layer
// covers both sides of every operation.
package usdc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Decimals is the fixed-point scale of the reserve currency.
const Decimals = 6

// Unit is the number of base units per whole dollar.
const Unit uint64 = 1_000_000

// Amount is a quantity in base units (1e-6 dollars).
type Amount uint64

// FromDollars converts a whole-dollar figure to base units.
func FromDollars(dollars uint64) Amount {
	return Amount(dollars * Unit)
}

// Dollars returns the whole-dollar part, truncating sub-dollar units.
func (a Amount) Dollars() uint64 { return uint64(a) / Unit }

// Float returns the dollar value as a float for display math only.
func (a Amount) Float() float64 { return float64(a) / float64(Unit) }

// Format renders the amount as a dollar string, e.g. "$33,333.33".
func (a Amount) Format() string {
	whole := uint64(a) / Unit
	frac := uint64(a) % Unit / 10_000 // two decimal places
	return fmt.Sprintf("$%s.%02d", groupThousands(whole), frac)
}

func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

func groupThousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ParseDollars parses a dollar string such as "$25,000" or "33333.33" into
// base units.
func ParseDollars(s string) (Amount, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("parse dollars: empty amount")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse dollars %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("parse dollars %q: negative amount", s)
	}
	return Amount(math.Floor(v * float64(Unit))), nil
}

// ParseISODate converts an ISO date (2024-01-01) to its Unix timestamp at
// midnight UTC. Oracle payloads carry dates in this form.
func ParseISODate(s string) (int64, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.Unix(), nil
}

// FormatUnix renders a Unix timestamp as an ISO date.
func FormatUnix(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
