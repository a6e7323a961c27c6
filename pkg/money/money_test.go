package money

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"0.01", nil},
		{"150.00", nil},
		{"3500", nil},
		{"999999999999.99", nil},
		{"0", ErrNotPositive},
		{"0.00", ErrNotPositive},
		{"-10.50", ErrNotPositive},
		{"10.001", ErrTooPrecise},
		{"1000000000000.00", ErrTooLarge},
		{"1e12", ErrTooLarge},
		{"99999999999.9e1", nil},
		{"1.50000", nil},
		{"1e-3", ErrTooPrecise},
		{"1500e-3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Validate(decimal.RequireFromString(tt.in))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateExtremeExponents(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"1e-1000000000", ErrTooPrecise},
		{"1e1000000000", ErrTooLarge},
		{"1e-50000000", ErrTooPrecise},
		{"1e2147483647", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.in)
			require.NoError(t, err)

			done := make(chan error, 1)
			go func() { done <- Validate(d) }()
			select {
			case err := <-done:
				assert.ErrorIs(t, err, tt.wantErr)
			case <-time.After(time.Second):
				t.Fatalf("Validate(%s) did not return within 1s", tt.in)
			}
		})
	}
}

func TestSumIsExact(t *testing.T) {
	total := Sum(
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("0.20"),
		decimal.RequireFromString("0.30"),
	)
	assert.Equal(t, "0.60", Format(total))
	assert.True(t, Sum().IsZero())
}
