package pdf

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceiptProducesPDF(t *testing.T) {
	p := New()
	r, err := p.GenerateReceipt(context.Background(), ReceiptData{
		StoreName:     "TSF SHOP",
		Signature:     "Trading Sin Fronteras",
		Token:         "tok_123",
		AccessURL:     "https://shop.example/access.html?token=tok_123",
		ProductID:     "curso-x",
		ProductName:   "Curso X",
		Email:         "buyer@example.com",
		IssuedAt:      "2024-05-01 10:00 UTC",
		Amount:        "USD 49.00",
		DeliveryType:  "drive_link",
		DeliveryValue: "https://drive.example/folder",
		Instructions:  "Paso 1\n\nPaso 2",
		PDFURL:        "https://cdn.example/guide.pdf",
	})
	require.NoError(t, err)

	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, len(raw) > 4)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestGenerateReceiptHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().GenerateReceipt(ctx, ReceiptData{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoOpProviderIsDisabled(t *testing.T) {
	_, err := (&NoOpProvider{}).GenerateReceipt(context.Background(), ReceiptData{})
	assert.ErrorIs(t, err, ErrDisabled)
}
