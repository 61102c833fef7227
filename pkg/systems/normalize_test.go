package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "Montréal", expected: "montreal"},
		{input: "MONTRÉAL", expected: "montreal"},
		{input: "montreal", expected: "montreal"},
		{input: "Vélib' Métropole", expected: "velib' metropole"},
		{input: "São Paulo", expected: "sao paulo"},
		{input: "Zürich", expected: "zurich"},
		{input: "Bixi_MTL", expected: "bixi_mtl"},
		{input: "Ålesund", expected: "alesund"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"BIXI Montréal", "Kraków", "İstanbul", "Malmö by Bike", "Ñuñoa"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), s)
	}
}

func TestNormalize_KeepsNonLatinScripts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "東京", Normalize("東京"))
	assert.Equal(t, "москва", Normalize("Москва"))
}
