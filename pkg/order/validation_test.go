package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidShippingPasses(t *testing.T) {
	assert.NoError(t, validShipping().Validate())
}

func TestValidationReportsEveryField(t *testing.T) {
	err := ShippingInfo{Name: "   ", Email: ""}.Validate()
	require.Error(t, err)
	require.True(t, IsValidation(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"name":    "Name is required",
		"email":   "Email is required",
		"address": "Address is required",
		"city":    "City is required",
		"state":   "State is required",
		"zipCode": "Zip code is required",
		"country": "Country is required",
	}, verr.Fields)
}

func TestEmailFormat(t *testing.T) {
	cases := map[string]bool{
		"jane@example.com":  true,
		"a@b.co":            true,
		"jane@example":      false,
		"jane example@x.io": false,
		"@example.com":      false,
		"jane@@example.com": false,
	}
	for email, ok := range cases {
		s := validShipping()
		s.Email = email
		err := s.Validate()
		if ok {
			assert.NoError(t, err, email)
			continue
		}
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), email)
		assert.Equal(t, map[string]string{"email": "Invalid email format"}, verr.Fields, email)
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"zipCode": "Zip code is required", "city": "City is required"}}
	assert.Equal(t, "invalid shipping info: city: City is required; zipCode: Zip code is required", err.Error())
	assert.False(t, IsValidation(errors.New("other")))
}
