package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]level{"Debug": "debug", "info": "info"}, level("info"))

	assert.Equal(t, level("debug"), n.Normalize("  DEBUG "))
	assert.Equal(t, level("info"), n.Normalize("verbose"))
	assert.Equal(t, []string{"debug", "info"}, n.ValidKeys())

	v, err := n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, level("info"), v)

	_, err = n.NormalizeWithError("trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trace")
}
