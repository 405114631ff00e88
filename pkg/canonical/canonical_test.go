package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_SortsKeys(t *testing.T) {
	out, err := JSON(map[string]any{"b": 1, "a": 2, "c": []any{"x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":["x"]}`, string(out))
}

func TestJSON_Deterministic(t *testing.T) {
	v := map[string]any{"outer": map[string]any{"z": true, "a": "s"}, "n": 1.5}
	first, err := JSON(v)
	require.NoError(t, err)
	second, err := JSON(v)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestHash_IndependentOfKeyOrder(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"b": "x", "a": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHash_ChangesWithContent(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
