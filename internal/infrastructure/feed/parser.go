package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/erp/carrier-sync/internal/domain/carrier"
)

// Parser turns a raw feed body into validated carrier records.
type Parser struct{}

// NewParser creates a feed parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes the feed document. It fails with
// carrier.ErrMalformedDocument when the body is not JSON,
// carrier.ErrMissingCarrierList when there is no non-empty carriers array,
// and carrier.ErrValidationFailure when any entry is unusable.
func (p *Parser) Parse(raw []byte) ([]carrier.Carrier, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: body is not valid JSON", carrier.ErrMalformedDocument)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: document is not an object", carrier.ErrMissingCarrierList)
	}

	list, ok := doc["carriers"]
	if !ok || bytes.Equal(bytes.TrimSpace(list), jsonNull) {
		return nil, carrier.ErrMissingCarrierList
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return nil, fmt.Errorf("%w: carriers is not an array", carrier.ErrMissingCarrierList)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: carriers array is empty", carrier.ErrMissingCarrierList)
	}

	carriers := make([]carrier.Carrier, 0, len(entries))
	for i, entry := range entries {
		var fc feedCarrier
		if err := json.Unmarshal(entry, &fc); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", carrier.ErrValidationFailure, i, err)
		}
		carriers = append(carriers, fc.toDomain())
	}

	if err := carrier.ValidateBatch(carriers); err != nil {
		return nil, err
	}
	return carriers, nil
}

func (fc *feedCarrier) toDomain() carrier.Carrier {
	return carrier.Carrier{
		ID:                    int64(fc.ID),
		Name:                  fc.Name,
		IsPickupPoints:        bool(fc.PickupPoints),
		HasCarrierDirectLabel: bool(fc.APIAllowed),
		SeparateHouseNumber:   bool(fc.SeparateHouseNumber),
		CustomsDeclarations:   bool(fc.CustomsDeclarations),
		RequiresEmail:         bool(fc.RequiresEmail),
		RequiresPhone:         bool(fc.RequiresPhone),
		RequiresSize:          bool(fc.RequiresSize),
		DisallowsCOD:          bool(fc.DisallowsCod),
		Country:               carrier.NormalizeCountry(fc.Country),
		Currency:              fc.Currency,
		MaxWeight:             float64(fc.MaxWeight),
	}
}
