package tabs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginPatterns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"extension wildcards collapse", []string{"chrome-extension://*", "moz-extension://*"}, []string{"*"}},
		{"host kept", []string{"http://localhost:3000/", "example.com"}, []string{"localhost:3000", "example.com"}},
		{"blank skipped", []string{" ", "https://"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, OriginPatterns(tt.in))
		})
	}
}
