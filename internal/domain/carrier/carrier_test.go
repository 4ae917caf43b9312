package carrier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Carrier Validation Tests
// ---------------------------------------------------------------------------

func TestCarrier_Validate(t *testing.T) {
	tests := []struct {
		name    string
		carrier Carrier
		wantErr bool
	}{
		{"Valid carrier", Carrier{ID: 106, Name: "CZ Zásilkovna domů", Country: "cz"}, false},
		{"Only required fields", Carrier{ID: 1, Name: "X"}, false},
		{"Zero ID", Carrier{ID: 0, Name: "X"}, true},
		{"Negative ID", Carrier{ID: -5, Name: "X"}, true},
		{"Empty name", Carrier{ID: 1, Name: ""}, true},
		{"Blank name", Carrier{ID: 1, Name: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.carrier.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidationFailure)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBatch(t *testing.T) {
	t.Run("Valid batch", func(t *testing.T) {
		err := ValidateBatch([]Carrier{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})
		assert.NoError(t, err)
	})

	t.Run("Empty batch", func(t *testing.T) {
		err := ValidateBatch(nil)
		assert.ErrorIs(t, err, ErrMissingCarrierList)
	})

	t.Run("One invalid entry rejects the batch", func(t *testing.T) {
		err := ValidateBatch([]Carrier{{ID: 1, Name: "A"}, {ID: 2}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailure)
		assert.Contains(t, err.Error(), "entry 1")
	})

	t.Run("Duplicate IDs", func(t *testing.T) {
		err := ValidateBatch([]Carrier{{ID: 7, Name: "A"}, {ID: 7, Name: "B"}})
		assert.ErrorIs(t, err, ErrValidationFailure)
		assert.Contains(t, err.Error(), "repeats id 7")
	})
}

func TestIDSet(t *testing.T) {
	ids := IDSet([]Carrier{{ID: 3}, {ID: 1}, {ID: 2}})
	assert.Equal(t, []int64{3, 1, 2}, ids)
	assert.Empty(t, IDSet(nil))
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "cz", NormalizeCountry("CZ"))
	assert.Equal(t, "sk", NormalizeCountry(" sk "))
	assert.Equal(t, "", NormalizeCountry(""))
}

func TestCarrier_Summary(t *testing.T) {
	c := Carrier{ID: 131, Name: "HU Posta", Country: "hu"}
	assert.Equal(t, Summary{ID: 131, Name: "HU Posta"}, c.Summary())
}

func TestIsParseFailure(t *testing.T) {
	assert.True(t, IsParseFailure(ErrMalformedDocument))
	assert.True(t, IsParseFailure(errors.Join(errors.New("ctx"), ErrMissingCarrierList)))
	assert.False(t, IsParseFailure(ErrValidationFailure))
	assert.False(t, IsParseFailure(ErrTransportFailure))
	assert.False(t, IsParseFailure(nil))
}
