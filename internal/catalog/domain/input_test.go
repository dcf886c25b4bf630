package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagAcceptsBooleanLikeValues(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`"true"`:  true,
		`1`:       true,
		`"1"`:     true,
		`false`:   false,
		`"false"`: false,
		`0`:       false,
		`"0"`:     false,
	}
	for raw, want := range cases {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(raw), &f), raw)
		assert.Equal(t, want, bool(f), raw)
	}

	var f Flag
	assert.ErrorIs(t, json.Unmarshal([]byte(`"maybe"`), &f), ErrInvalidFlag)
	assert.ErrorIs(t, json.Unmarshal([]byte(`2`), &f), ErrInvalidFlag)
}

func TestCentsParsing(t *testing.T) {
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"price_cents":"4900"}`), &in))
	assert.Equal(t, int64(4900), in.PriceCents.Value())

	require.NoError(t, json.Unmarshal([]byte(`{"price_cents":19900}`), &in))
	assert.Equal(t, int64(19900), in.PriceCents.Value())

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"price_cents":-1}`), &in), ErrInvalidPrice)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"price_cents":12.5}`), &in), ErrInvalidPrice)
}

func TestAbsentFieldsStayNil(t *testing.T) {
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","price_cents":100}`), &in))
	assert.Nil(t, in.Name)
	assert.Nil(t, in.IsActive)
	assert.True(t, in.IsActive.Bool(true))
}

func TestProductVisibilityAndAccess(t *testing.T) {
	legacy := Product{ID: "p1"}
	assert.True(t, legacy.Active())
	assert.True(t, legacy.Featured())

	hidden := Product{ID: "p2", IsActive: BoolPtr(false)}
	assert.False(t, hidden.Active())

	assert.False(t, Product{Type: ProductTypePhysical, DeliveryType: DeliveryDriveLink}.GrantsAccess())
	assert.False(t, Product{Type: ProductTypeCourse, DeliveryType: DeliveryNone}.GrantsAccess())
	assert.True(t, Product{Type: ProductTypeCourse, DeliveryType: DeliveryDriveLink}.GrantsAccess())
}

func TestDefaultProductsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range DefaultProducts() {
		assert.False(t, seen[p.ID], p.ID)
		seen[p.ID] = true
		assert.True(t, p.Type.Valid(), p.ID)
		assert.True(t, p.DeliveryType.Valid(), p.ID)
		assert.Positive(t, p.PriceCents, p.ID)
	}
}
