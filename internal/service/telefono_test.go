package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizarTelefono(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"987654321", "+51987654321", true},
		{"+51 987 654 321", "+51987654321", true},
		{"  987654321 ", "+51987654321", true},
		{"123", "123", false},
		{"no tengo", "no tengo", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizarTelefono(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
