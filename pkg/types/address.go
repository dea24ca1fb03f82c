package types

import (
	"fmt"
	"strings"
)

// Address is the structured postal address stored on orders. It is written
// once at order creation and never mutated.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// Validate checks that every field is populated.
func (a Address) Validate() error {
	fields := map[string]string{
		"street":      a.Street,
		"city":        a.City,
		"state":       a.State,
		"country":     a.Country,
		"postal_code": a.PostalCode,
	}
	for _, name := range []string{"street", "city", "state", "country", "postal_code"} {
		if strings.TrimSpace(fields[name]) == "" {
			return fmt.Errorf("address: missing %s", name)
		}
	}
	return nil
}
