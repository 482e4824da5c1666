package business

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

func maxPlaceholder(t *testing.T, query string) int {
	t.Helper()
	max := 0
	for _, m := range placeholderPattern.FindAllStringSubmatch(query, -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		if n > max {
			max = n
		}
	}
	return max
}

func TestProfileListQueriesUnfiltered(t *testing.T) {
	countQuery, countArgs, listQuery, listArgs := profileListQueries("", 20, 0)

	assert.NotContains(t, countQuery, "WHERE")
	assert.Empty(t, countArgs)
	assert.Equal(t, maxPlaceholder(t, listQuery), len(listArgs))
}

func TestProfileListQueriesFiltered(t *testing.T) {
	countQuery, countArgs, listQuery, listArgs := profileListQueries("services", 10, 30)

	// Every placeholder must be backed by a bound argument, or postgres
	// rejects the bind before the query runs.
	assert.Equal(t, maxPlaceholder(t, countQuery), len(countArgs))
	assert.Equal(t, maxPlaceholder(t, listQuery), len(listArgs))

	assert.Contains(t, countQuery, "WHERE category = $1")
	assert.Equal(t, []any{"services"}, countArgs)
	assert.Equal(t, []any{10, 30, "services"}, listArgs)
}
