package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilenameMeta_StrictForm(t *testing.T) {
	req := ParseFilenameMeta("/data/json/20250810112529289-data ai engineer-page3.json")

	assert.Equal(t, "20250810112529289-data ai engineer-page3", req.SearchID)
	require.NotNil(t, req.Query)
	assert.Equal(t, "data ai engineer", *req.Query)
	require.NotNil(t, req.Page)
	assert.Equal(t, 3, *req.Page)
	require.NotNil(t, req.QueryTimestamp)
	want := time.Date(2025, 8, 10, 11, 25, 29, 289000*1000, time.UTC)
	assert.True(t, req.QueryTimestamp.Equal(want), "got %s", req.QueryTimestamp)
}

func TestParseFilenameMeta_RelaxedForm(t *testing.T) {
	req := ParseFilenameMeta("20250810112529289-golang-page.json")

	assert.Equal(t, "20250810112529289-golang-page", req.SearchID)
	require.NotNil(t, req.Query)
	assert.Equal(t, "golang", *req.Query)
	assert.Nil(t, req.Page)
	require.NotNil(t, req.QueryTimestamp)
}

func TestParseFilenameMeta_NoFractionalDigits(t *testing.T) {
	// A bare 14-digit run has no sub-second digits and leaves the
	// timestamp unset.
	req := ParseFilenameMeta("20250810112529-query-page1.json")
	assert.Equal(t, "20250810112529-query-page1", req.SearchID)
	assert.Nil(t, req.QueryTimestamp)
}

func TestParseFilenameMeta_Fallback(t *testing.T) {
	req := ParseFilenameMeta("/somewhere/notes.json")
	assert.Equal(t, "notes", req.SearchID)
	assert.Nil(t, req.Query)
	assert.Nil(t, req.Page)
	assert.Nil(t, req.QueryTimestamp)
}

func TestParseFilenameMeta_SamePrefixDifferentPage(t *testing.T) {
	a := ParseFilenameMeta("20250810112529289-q-page1.json")
	b := ParseFilenameMeta("20250810112529289-q-page2.json")
	assert.NotEqual(t, a.SearchID, b.SearchID)
}
