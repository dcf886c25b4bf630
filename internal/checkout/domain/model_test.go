package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeItem(t *testing.T, raw string) Item {
	t.Helper()
	var item Item
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	return item
}

func TestItemLine(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    CartLine
		wantErr error
	}{
		{name: "price cents", raw: `{"name":"Curso X","price_cents":4900}`, want: CartLine{Name: "Curso X", PriceCents: 4900, Quantity: 1}},
		{name: "price cents wins", raw: `{"name":"Curso X","price":10,"price_cents":4900}`, want: CartLine{Name: "Curso X", PriceCents: 4900, Quantity: 1}},
		{name: "price is cents", raw: `{"name":"Curso X","price":4900,"quantity":2}`, want: CartLine{Name: "Curso X", PriceCents: 4900, Quantity: 2}},
		{name: "string amounts", raw: `{"name":"Curso X","price_cents":"4900","qty":"3"}`, want: CartLine{Name: "Curso X", PriceCents: 4900, Quantity: 3}},
		{name: "id fallback", raw: `{"id":"p1","name":" Curso X ","price":1}`, want: CartLine{ProductID: "p1", Name: "Curso X", PriceCents: 1, Quantity: 1}},
		{name: "product id preferred", raw: `{"id":"p1","product_id":"p2","name":"A","price":1}`, want: CartLine{ProductID: "p2", Name: "A", PriceCents: 1, Quantity: 1}},
		{name: "missing name", raw: `{"price":100}`, wantErr: ErrInvalidItemName},
		{name: "missing price", raw: `{"name":"A"}`, wantErr: ErrInvalidPrice},
		{name: "negative price", raw: `{"name":"A","price":-1}`, wantErr: ErrInvalidPrice},
		{name: "fractional price", raw: `{"name":"A","price":49.9}`, wantErr: ErrInvalidPrice},
		{name: "zero quantity", raw: `{"name":"A","price":1,"quantity":0}`, wantErr: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := decodeItem(t, tt.raw).Line()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, line)
		})
	}
}
