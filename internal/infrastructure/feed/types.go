package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Feed Wire Types
// ---------------------------------------------------------------------------

// feedCarrier is one entry of the provider's "carriers" array. The provider
// serialises most scalars as strings, so the scalar fields accept both forms.
type feedCarrier struct {
	ID                  flexInt   `json:"id"`
	Name                string    `json:"name"`
	Country             string    `json:"country"`
	Currency            string    `json:"currency"`
	PickupPoints        flexBool  `json:"pickupPoints"`
	APIAllowed          flexBool  `json:"apiAllowed"`
	SeparateHouseNumber flexBool  `json:"separateHouseNumber"`
	CustomsDeclarations flexBool  `json:"customsDeclarations"`
	RequiresEmail       flexBool  `json:"requiresEmail"`
	RequiresPhone       flexBool  `json:"requiresPhone"`
	RequiresSize        flexBool  `json:"requiresSize"`
	DisallowsCod        flexBool  `json:"disallowsCod"`
	MaxWeight           flexFloat `json:"maxWeight"`
}

var jsonNull = []byte("null")

// unquote strips JSON string quotes if present and reports whether they were.
func unquote(b []byte) (string, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", true, err
		}
		return strings.TrimSpace(s), true, nil
	}
	return string(b), false, nil
}

// flexInt accepts an integer or a string of digits.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		*f = 0
		return nil
	}
	s, _, err := unquote(b)
	if err != nil {
		return err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", string(b))
	}
	*f = flexInt(n)
	return nil
}

// flexBool accepts true/false, 1/0 and their string forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		*f = false
		return nil
	}
	s, _, err := unquote(b)
	if err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "true", "1":
		*f = true
	case "false", "0", "":
		*f = false
	default:
		return fmt.Errorf("not a boolean: %s", string(b))
	}
	return nil
}

// flexFloat accepts a number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		*f = 0
		return nil
	}
	s, _, err := unquote(b)
	if err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("not a number: %s", string(b))
	}
	*f = flexFloat(d.InexactFloat64())
	return nil
}
