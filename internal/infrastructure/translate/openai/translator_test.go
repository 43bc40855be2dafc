package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navayuwa/nes-core/internal/infrastructure/config"
)

func TestNewTranslator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TranslatorConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     config.TranslatorConfig{APIKey: "test-key"},
			wantErr: false,
		},
		{
			name:    "valid config with model",
			cfg:     config.TranslatorConfig{APIKey: "test-key", Model: "gpt-4"},
			wantErr: false,
		},
		{
			name:    "missing API key",
			cfg:     config.TranslatorConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator, err := NewTranslator(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, translator)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, translator)
			}
		})
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "नेपाली कांग्रेस",
			expected: "नेपाली कांग्रेस",
		},
		{
			name:     "surrounding whitespace",
			input:    "  नेपाली कांग्रेस\n",
			expected: "नेपाली कांग्रेस",
		},
		{
			name:     "double quoted",
			input:    `"नेपाली कांग्रेस"`,
			expected: "नेपाली कांग्रेस",
		},
		{
			name:     "single quoted",
			input:    "'काठमाडौं'",
			expected: "काठमाडौं",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanResponse(tt.input))
		})
	}
}
