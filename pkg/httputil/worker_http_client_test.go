package httputil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptimizedClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  *ClientConfig
		want *ClientConfig
	}{
		{"nil uses default", nil, DefaultClientConfig()},
		{"gmail", GmailClientConfig(), GmailClientConfig()},
		{"openai", OpenAIClientConfig(), OpenAIClientConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOptimizedClient(tt.cfg)

			assert.Equal(t, tt.want.ResponseTimeout, c.Timeout)
			tr, ok := c.Transport.(*http.Transport)
			require.True(t, ok)
			assert.Equal(t, tt.want.MaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
			assert.Equal(t, tt.want.MaxConnsPerHost, tr.MaxConnsPerHost)
		})
	}
}
