package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/carrier-sync/internal/domain/carrier"
)

func TestParser_Parse(t *testing.T) {
	p := NewParser()

	t.Run("String-typed provider payload", func(t *testing.T) {
		raw := []byte(`{"carriers":[{
			"id":"106","name":"CZ Zásilkovna domů HD","country":"CZ","currency":"CZK",
			"pickupPoints":"false","apiAllowed":"true","separateHouseNumber":"false",
			"customsDeclarations":"false","requiresEmail":"true","requiresPhone":"true",
			"requiresSize":"false","disallowsCod":"false","maxWeight":"30"
		}]}`)

		carriers, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, carriers, 1)

		c := carriers[0]
		assert.Equal(t, int64(106), c.ID)
		assert.Equal(t, "CZ Zásilkovna domů HD", c.Name)
		assert.Equal(t, "cz", c.Country)
		assert.Equal(t, "CZK", c.Currency)
		assert.False(t, c.IsPickupPoints)
		assert.True(t, c.HasCarrierDirectLabel)
		assert.True(t, c.RequiresEmail)
		assert.True(t, c.RequiresPhone)
		assert.False(t, c.DisallowsCOD)
		assert.Equal(t, 30.0, c.MaxWeight)
		assert.False(t, c.Deleted)
	})

	t.Run("Native JSON types", func(t *testing.T) {
		raw := []byte(`{"carriers":[{"id":7,"name":"A","pickupPoints":true,"disallowsCod":1,"maxWeight":2.5}]}`)

		carriers, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, carriers, 1)
		assert.Equal(t, int64(7), carriers[0].ID)
		assert.True(t, carriers[0].IsPickupPoints)
		assert.True(t, carriers[0].DisallowsCOD)
		assert.Equal(t, 2.5, carriers[0].MaxWeight)
	})

	t.Run("Extra keys are ignored", func(t *testing.T) {
		raw := []byte(`{"version":4,"carriers":[{"id":1,"name":"A","labelRouting":"x"}]}`)
		carriers, err := p.Parse(raw)
		require.NoError(t, err)
		assert.Len(t, carriers, 1)
	})

	failures := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"Not JSON", `<html>maintenance</html>`, carrier.ErrMalformedDocument},
		{"Truncated JSON", `{"carriers":[{"id":1`, carrier.ErrMalformedDocument},
		{"Empty body", ``, carrier.ErrMalformedDocument},
		{"No carriers key", `{"error":"bad key"}`, carrier.ErrMissingCarrierList},
		{"Null carriers", `{"carriers":null}`, carrier.ErrMissingCarrierList},
		{"Empty carriers", `{"carriers":[]}`, carrier.ErrMissingCarrierList},
		{"Carriers not an array", `{"carriers":"none"}`, carrier.ErrMissingCarrierList},
		{"Top-level array", `[{"id":1,"name":"A"}]`, carrier.ErrMissingCarrierList},
		{"Missing id", `{"carriers":[{"name":"A"}]}`, carrier.ErrValidationFailure},
		{"Non-integer id", `{"carriers":[{"id":"abc","name":"A"}]}`, carrier.ErrValidationFailure},
		{"Fractional id", `{"carriers":[{"id":1.5,"name":"A"}]}`, carrier.ErrValidationFailure},
		{"Missing name", `{"carriers":[{"id":1}]}`, carrier.ErrValidationFailure},
		{"Numeric name", `{"carriers":[{"id":1,"name":42}]}`, carrier.ErrValidationFailure},
		{"Bad boolean", `{"carriers":[{"id":1,"name":"A","requiresSize":"maybe"}]}`, carrier.ErrValidationFailure},
		{"Entry not an object", `{"carriers":[5]}`, carrier.ErrValidationFailure},
		{"One bad entry among good", `{"carriers":[{"id":1,"name":"A"},{"id":2}]}`, carrier.ErrValidationFailure},
		{"Duplicate ids", `{"carriers":[{"id":1,"name":"A"},{"id":"1","name":"B"}]}`, carrier.ErrValidationFailure},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			carriers, err := p.Parse([]byte(tt.raw))
			assert.Nil(t, carriers)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFlexTypes(t *testing.T) {
	t.Run("flexInt", func(t *testing.T) {
		var v flexInt
		require.NoError(t, v.UnmarshalJSON([]byte(`" 42 "`)))
		assert.Equal(t, flexInt(42), v)
		require.NoError(t, v.UnmarshalJSON([]byte(`null`)))
		assert.Equal(t, flexInt(0), v)
		assert.Error(t, v.UnmarshalJSON([]byte(`true`)))
	})

	t.Run("flexBool", func(t *testing.T) {
		var v flexBool
		for _, in := range []string{`true`, `"true"`, `"TRUE"`, `1`, `"1"`} {
			require.NoError(t, v.UnmarshalJSON([]byte(in)), in)
			assert.True(t, bool(v), in)
		}
		for _, in := range []string{`false`, `"false"`, `0`, `""`, `null`} {
			require.NoError(t, v.UnmarshalJSON([]byte(in)), in)
			assert.False(t, bool(v), in)
		}
	})

	t.Run("flexFloat", func(t *testing.T) {
		var v flexFloat
		require.NoError(t, v.UnmarshalJSON([]byte(`"10.5"`)))
		assert.Equal(t, flexFloat(10.5), v)
		require.NoError(t, v.UnmarshalJSON([]byte(`""`)))
		assert.Equal(t, flexFloat(0), v)
		assert.Error(t, v.UnmarshalJSON([]byte(`"heavy"`)))
	})
}
