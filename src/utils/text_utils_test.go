package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "date fin travaux", NormalizeHeader("  Date_Fin   Travaux "))
	assert.Equal(t, "ref pm", NormalizeHeader("Réf PM"))
	assert.Equal(t, "periode", NormalizeHeader("PÉRIODE"))
	assert.Equal(t, "", NormalizeHeader("   "))
}

func TestContainsNormalized(t *testing.T) {
	assert.True(t, ContainsNormalized("Détails interventions", "details"))
	assert.False(t, ContainsNormalized("Récap", "details"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"45.50", "45.5", true},
		{"45,50", "45.5", true},
		{"1 234,56 €", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"1,234,567", "1234567", true},
		{"-12,5", "-12.5", true},
		{"", "0", false},
		{"n/a", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLookupTechnician(t *testing.T) {
	for _, code := range []string{"GSE 02", "gse02", "GSE-2", "GSE_002"} {
		name, ok := LookupTechnician(code)
		assert.True(t, ok, code)
		assert.Equal(t, "Julien Moreau", name, code)
	}
	_, ok := LookupTechnician("Jean Dupont")
	assert.False(t, ok)
	_, ok = LookupTechnician("")
	assert.False(t, ok)
}
