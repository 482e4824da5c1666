package moderation

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

func TestReportListQueriesUnfiltered(t *testing.T) {
	countQuery, countArgs, listQuery, listArgs := reportListQueries("", 20, 0)

	assert.NotContains(t, countQuery, "WHERE")
	assert.Empty(t, countArgs)
	assert.Equal(t, maxPlaceholder(t, listQuery), len(listArgs))
}

func TestReportListQueriesFiltered(t *testing.T) {
	countQuery, countArgs, listQuery, listArgs := reportListQueries(StatusOpen, 20, 40)

	// Every placeholder must be backed by a bound argument, or postgres
	// rejects the bind before the query runs.
	assert.Equal(t, maxPlaceholder(t, countQuery), len(countArgs))
	assert.Equal(t, maxPlaceholder(t, listQuery), len(listArgs))

	assert.Contains(t, countQuery, "WHERE status = $1")
	assert.Equal(t, []any{StatusOpen}, countArgs)
	assert.Equal(t, []any{20, 40, StatusOpen}, listArgs)
}
