package services

import (
	"testing"
)

func TestValidPushToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "well formed token",
			input:    "ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]",
			expected: true,
		},
		{
			name:     "token with surrounding whitespace",
			input:    "  ExponentPushToken[abc123]  ",
			expected: true,
		},
		{
			name:     "missing brackets",
			input:    "ExponentPushToken",
			expected: false,
		},
		{
			name:     "wrong prefix",
			input:    "FCMToken[abc123]",
			expected: false,
		},
		{
			name:     "empty string",
			input:    "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidPushToken(tt.input)
			if result != tt.expected {
				t.Errorf("ValidPushToken(%q) = %v; want %v", tt.input, result, tt.expected)
			}
		})
	}
}
