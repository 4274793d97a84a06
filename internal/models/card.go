package models

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidCardNumber   = errors.New("card number must be 12 to 19 digits")
	ErrInvalidExpiry       = errors.New("expiry date must be MM/YY")
	ErrInvalidSecurityCode = errors.New("security code must be 3 or 4 digits")
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// Card holds the payment details entered at checkout.
type Card struct {
	Number       string
	ExpiryDate   string
	SecurityCode string
	HolderName   string
}

// NewCard normalises the number (spaces and dashes removed) and validates
// the fields. The holder name is optional.
func NewCard(number, expiry, securityCode, holder string) (Card, error) {
	c := Card{
		Number:       strings.NewReplacer(" ", "", "-", "").Replace(number),
		ExpiryDate:   strings.TrimSpace(expiry),
		SecurityCode: strings.TrimSpace(securityCode),
		HolderName:   strings.TrimSpace(holder),
	}

	if len(c.Number) < 12 || len(c.Number) > 19 || strings.Trim(c.Number, "0123456789") != "" {
		return Card{}, ErrInvalidCardNumber
	}
	if !expiryPattern.MatchString(c.ExpiryDate) {
		return Card{}, ErrInvalidExpiry
	}
	if !cvcPattern.MatchString(c.SecurityCode) {
		return Card{}, ErrInvalidSecurityCode
	}
	return c, nil
}

// Last4 returns the last four digits of the number.
func (c Card) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// LuhnValid reports whether the number passes the Luhn checksum.
func (c Card) LuhnValid() bool {
	sum := 0
	double := false
	for i := len(c.Number) - 1; i >= 0; i-- {
		d := int(c.Number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return len(c.Number) > 0 && sum%10 == 0
}
