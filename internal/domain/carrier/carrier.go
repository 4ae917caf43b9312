package carrier

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Carrier is one entry of the carrier catalog.
// ID is assigned by the provider and never changes or gets reused.
type Carrier struct {
	ID                    int64   `json:"id" validate:"gt=0"`
	Name                  string  `json:"name" validate:"required"`
	IsPickupPoints        bool    `json:"is_pickup_points"`
	HasCarrierDirectLabel bool    `json:"has_carrier_direct_label"`
	SeparateHouseNumber   bool    `json:"separate_house_number"`
	CustomsDeclarations   bool    `json:"customs_declarations"`
	RequiresEmail         bool    `json:"requires_email"`
	RequiresPhone         bool    `json:"requires_phone"`
	RequiresSize          bool    `json:"requires_size"`
	DisallowsCOD          bool    `json:"disallows_cod"`
	Country               string  `json:"country"`
	Currency              string  `json:"currency"`
	MaxWeight             float64 `json:"max_weight"`
	Deleted               bool    `json:"deleted"`
}

// Summary is the (id, name) projection returned by per-country lookups.
type Summary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate checks the fields every feed entry must carry.
func (c *Carrier) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailure, describeValidation(err))
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is blank", ErrValidationFailure)
	}
	return nil
}

// Summary returns the (id, name) projection of the carrier.
func (c *Carrier) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name}
}

// ValidateBatch validates a whole feed. Either every entry passes or the
// batch is rejected; duplicate IDs are rejected as well.
func ValidateBatch(carriers []Carrier) error {
	if len(carriers) == 0 {
		return ErrMissingCarrierList
	}

	seen := make(map[int64]int, len(carriers))
	for i := range carriers {
		if err := carriers[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if prev, dup := seen[carriers[i].ID]; dup {
			return fmt.Errorf("%w: entry %d repeats id %d of entry %d",
				ErrValidationFailure, i, carriers[i].ID, prev)
		}
		seen[carriers[i].ID] = i
	}
	return nil
}

// IDSet returns the carrier IDs in feed order.
func IDSet(carriers []Carrier) []int64 {
	ids := make([]int64, 0, len(carriers))
	for i := range carriers {
		ids = append(ids, carriers[i].ID)
	}
	return ids
}

// NormalizeCountry converts a country code to the stored form (lower case).
func NormalizeCountry(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		case "gt":
			parts = append(parts, strings.ToLower(fe.Field())+" must be greater than "+fe.Param())
		default:
			parts = append(parts, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(parts, ", ")
}
