package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVariant(t *testing.T) {
	tests := []struct {
		in   string
		want VariantSize
	}{
		{"small", VariantSmall},
		{"medium", VariantMedium},
		{"full", VariantFull},
		{"", VariantMedium},
		{"thumbnail", VariantMedium},
		{"FULL", VariantMedium},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeVariant(tc.in))
		})
	}
}
