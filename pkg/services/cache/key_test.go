package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeKey(t *testing.T) {
	t.Run("deterministic for identical params", func(t *testing.T) {
		first, err := ComputeKey("trends", map[string]any{"metric": "total", "interval": "month"})
		require.NoError(t, err)
		second, err := ComputeKey("trends", map[string]any{"interval": "month", "metric": "total"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("name prefixes the digest", func(t *testing.T) {
		key, err := ComputeKey("kpis", struct{}{})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(key, "kpis:"))
		// sha256 hex digest after the prefix
		assert.Len(t, key, len("kpis:")+64)
	})

	t.Run("different params produce different keys", func(t *testing.T) {
		first, err := ComputeKey("histogram", map[string]any{"field": "total"})
		require.NoError(t, err)
		second, err := ComputeKey("histogram", map[string]any{"field": "quantity"})
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("struct and map forms hash alike", func(t *testing.T) {
		type params struct {
			Metric   string `json:"metric"`
			Interval string `json:"interval"`
		}

		fromStruct, err := ComputeKey("series", params{Metric: "total", Interval: "month"})
		require.NoError(t, err)
		fromMap, err := ComputeKey("series", map[string]string{"interval": "month", "metric": "total"})
		require.NoError(t, err)

		assert.Equal(t, fromStruct, fromMap)
	})

	t.Run("unencodable params fail", func(t *testing.T) {
		_, err := ComputeKey("bad", map[string]any{"fn": func() {}})

		assert.Error(t, err)
	})
}
