package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleProtocolDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "adds exec mode",
			in:   "postgres://u:p@localhost:5432/app",
			want: "postgres://u:p@localhost:5432/app?default_query_exec_mode=simple_protocol",
		},
		{
			name: "keeps existing params",
			in:   "postgres://u:p@localhost:5432/app?sslmode=disable",
			want: "postgres://u:p@localhost:5432/app?default_query_exec_mode=simple_protocol&sslmode=disable",
		},
		{
			name: "respects explicit mode",
			in:   "postgres://localhost/app?default_query_exec_mode=exec",
			want: "postgres://localhost/app?default_query_exec_mode=exec",
		},
		{
			name: "keyword form untouched",
			in:   "host=localhost dbname=app",
			want: "host=localhost dbname=app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := simpleProtocolDSN(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaults(t *testing.T) {
	pg := DefaultPostgresConfig()
	assert.Greater(t, pg.MaxConns, pg.MinConns)

	rd := DefaultRedisConfig()
	assert.Positive(t, rd.PoolSize)
}
