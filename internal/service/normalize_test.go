package service_test

import (
	"testing"

	"github.com/medosmotr/examination-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"already canonical", "77011234567", "77011234567", false},
		{"plus prefix", "+77011234567", "77011234567", false},
		{"leading 8", "87011234567", "77011234567", false},
		{"ten digits", "7011234567", "77011234567", false},
		{"formatted", "+7 (701) 123-45-67", "77011234567", false},
		{"spaces and dashes", "8 701-123-45-67", "77011234567", false},
		{"letters", "7701abc4567", "", true},
		{"too short", "12345", "", true},
		{"too long", "770112345678", "", true},
		{"wrong country code", "17011234567", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.NormalizePhone(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Иванов Иван", "иванов иван"},
		{"collapses whitespace", "  Иванов   Иван \t Иванович ", "иванов иван иванович"},
		{"empty", "   ", ""},
		{"latin", "John  Smith", "john smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.NormalizeName(tt.in))
		})
	}
}
