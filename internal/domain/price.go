package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Price is a fixed-point currency amount in cents. The upstream data contract
// serializes prices as decimal strings ("29.99"); parsing into cents avoids
// float rounding drift.
type Price int64

// ParsePrice parses a decimal string with up to two fractional digits.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if w < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}

	cents := w * 100
	if hasFrac {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		cents += f
	}
	return Price(cents), nil
}

// MustParsePrice parses a decimal price string or panics. Seed data only.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String formats the price as a decimal string with two fractional digits.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// MarshalJSON serializes the price as a decimal string, matching the
// external data contract.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts both a decimal string and a bare number.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
