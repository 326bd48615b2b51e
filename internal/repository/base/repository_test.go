package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvisoryKey(t *testing.T) {
	// ключи, совпадающие в младших 32 битах, дают разные локи
	require.NotEqual(t, AdvisoryKey(1, 7), AdvisoryKey(1, 7+1<<32))

	// одинаковый id в разных пространствах имён не пересекается
	require.NotEqual(t, AdvisoryKey(1, 42), AdvisoryKey(2, 42))

	require.Equal(t, AdvisoryKey(2, 42), AdvisoryKey(2, 42))
}
