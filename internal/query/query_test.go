package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, rawQuery string, spec Spec) (Options, error) {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	return Parse(values, spec)
}

func TestParseEqualityFilter(t *testing.T) {
	opts, err := parseQuery(t, "status=active&priority=high", ProjectSpec)
	require.NoError(t, err)
	require.Len(t, opts.Conditions, 2)

	byColumn := map[string]Condition{}
	for _, cond := range opts.Conditions {
		byColumn[cond.Column] = cond
	}
	require.Equal(t, "=", byColumn["status"].Op)
	require.Equal(t, "active", byColumn["status"].Value)
	require.Equal(t, "high", byColumn["priority"].Value)
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	opts, err := parseQuery(t, "nonexistent=1&color=blue", ProjectSpec)
	require.NoError(t, err)
	require.Empty(t, opts.Conditions)
}

func TestParseRangeOperators(t *testing.T) {
	opts, err := parseQuery(t, "budget[gte]=100&budget[lt]=500", ProjectSpec)
	require.NoError(t, err)
	require.Len(t, opts.Conditions, 2)

	ops := map[string]bool{}
	for _, cond := range opts.Conditions {
		require.Equal(t, "budget", cond.Column)
		ops[cond.Op] = true
	}
	require.True(t, ops[">="])
	require.True(t, ops["<"])
}

func TestParseDateValues(t *testing.T) {
	opts, err := parseQuery(t, "due_date[lte]=2026-09-15", TaskSpec)
	require.NoError(t, err)
	require.Len(t, opts.Conditions, 1)

	parsed, ok := opts.Conditions[0].Value.(time.Time)
	require.True(t, ok)
	require.Equal(t, 2026, parsed.Year())
	require.Equal(t, time.September, parsed.Month())

	_, err = parseQuery(t, "due_date[gte]=2026-09-15T10:30:00Z", TaskSpec)
	require.NoError(t, err)
}

func TestParseRejectsRangeOnEnum(t *testing.T) {
	_, err := parseQuery(t, "status[gte]=todo", TaskSpec)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseRejectsUnknownOperator(t *testing.T) {
	_, err := parseQuery(t, "budget[like]=100", ProjectSpec)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := parseQuery(t, "status=galloping", ProjectSpec)
	require.Error(t, err)

	_, err = parseQuery(t, "budget[gte]=lots", ProjectSpec)
	require.Error(t, err)

	_, err = parseQuery(t, "due_date[lte]=someday", TaskSpec)
	require.Error(t, err)
}

func TestParseSort(t *testing.T) {
	opts, err := parseQuery(t, "sort=-created_at,name", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, []SortKey{
		{Column: "created_at", Desc: true},
		{Column: "name", Desc: false},
	}, opts.Sort)
}

func TestParseSortDefaults(t *testing.T) {
	opts, err := parseQuery(t, "", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, ProjectSpec.DefaultSort, opts.Sort)

	// Unknown sort keys are dropped; all-unknown falls back to the default.
	opts, err = parseQuery(t, "sort=shoe_size", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, ProjectSpec.DefaultSort, opts.Sort)
}

func TestParsePagination(t *testing.T) {
	opts, err := parseQuery(t, "page=3&limit=25", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, 3, opts.Page)
	require.Equal(t, 25, opts.Limit)
}

func TestParsePaginationDefaults(t *testing.T) {
	opts, err := parseQuery(t, "", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, 1, opts.Page)
	require.Equal(t, 10, opts.Limit)

	opts, err = parseQuery(t, "", TaskSpec)
	require.NoError(t, err)
	require.Equal(t, 20, opts.Limit)
}

func TestParsePaginationFallsBackOnGarbage(t *testing.T) {
	for _, raw := range []string{
		"page=abc&limit=xyz",
		"page=-1&limit=0",
		"page=0",
	} {
		opts, err := parseQuery(t, raw, ProjectSpec)
		require.NoError(t, err)
		require.Equal(t, 1, opts.Page, raw)
		require.Equal(t, 10, opts.Limit, raw)
	}
}

func TestParsePaginationCapsLimit(t *testing.T) {
	opts, err := parseQuery(t, "limit=5000", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, 10, opts.Limit)
}

func TestParseFieldsProjection(t *testing.T) {
	opts, err := parseQuery(t, "fields=name,status", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "status"}, opts.Columns)
}

func TestParseFieldsAlwaysIncludesID(t *testing.T) {
	opts, err := parseQuery(t, "fields=name", ProjectSpec)
	require.NoError(t, err)
	require.Contains(t, opts.Columns, "id")
}

func TestParseFieldsIgnoresUnknown(t *testing.T) {
	opts, err := parseQuery(t, "fields=name,shoe_size", ProjectSpec)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, opts.Columns)

	// Nothing recognized at all: select every column.
	opts, err = parseQuery(t, "fields=shoe_size", ProjectSpec)
	require.NoError(t, err)
	require.Nil(t, opts.Columns)
}

func TestParseReservedKeysAreNotFilters(t *testing.T) {
	opts, err := parseQuery(t, "project=42&status=todo", TaskSpec)
	require.NoError(t, err)
	require.Len(t, opts.Conditions, 1)
	require.Equal(t, "status", opts.Conditions[0].Column)
}
