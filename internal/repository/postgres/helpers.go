package postgres

import (
	"github.com/shopspring/decimal"
)

// scanDecimal converts a numeric column selected as text into a decimal
func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// scanNullDecimal converts a nullable numeric column selected as text
func scanNullDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// nullDecimalArg renders an optional decimal as a SQL parameter
func nullDecimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
