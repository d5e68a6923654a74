package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// Address captures a shipping or billing destination. Pricing treats it as
// opaque; it is snapshotted at checkout and copied onto the order verbatim.
type Address struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
	Identity   *string `json:"identity,omitempty"`
}

// IsZero reports whether no field was populated.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Validate reports whether the address carries the minimum required fields.
func (a Address) Validate() error {
	missing := []string{}
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return &AddressError{Missing: missing}
	}
	return nil
}

// AddressError lists the missing address fields.
type AddressError struct {
	Missing []string
}

func (e *AddressError) Error() string {
	return "address missing fields: " + strings.Join(e.Missing, ", ")
}

// Value serializes the address to JSON for a JSONB column.
func (a *Address) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan decodes JSONB into the address struct.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, a)
}
