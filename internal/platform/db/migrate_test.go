package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrdered(t *testing.T) {
	all, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	assert.True(t, strings.Contains(all[0].SQL, "CREATE TABLE"))
}

func TestPendingSkipsApplied(t *testing.T) {
	all := []Migration{{Version: "0001_init"}, {Version: "0002_seed"}, {Version: "0003_idx"}}
	pending := Pending(all, map[string]struct{}{"0001_init": {}, "0003_idx": {}})

	require.Len(t, pending, 1)
	assert.Equal(t, "0002_seed", pending[0].Version)
}
