package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(t *testing.T, in []string) []string {
	t.Helper()
	var out []string
	for _, c := range parseCategories(in) {
		out = append(out, c.Name)
	}
	return out
}

func TestParseCategories(t *testing.T) {
	assert.Equal(t, defaultCategories, names(t, nil))
	assert.Equal(t, defaultCategories, names(t, []string{" ", ""}))
	assert.Equal(t, []string{"Finance", "Legal"}, names(t, []string{" Finance", "Legal ", "finance"}))

	cats := parseCategories([]string{"A", "B"})
	assert.NotEqual(t, cats[0].ID, cats[1].ID)
}

func TestWriteJSONIndents(t *testing.T) {
	name := "Finance"
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, &analyzeOutput{File: "a.pdf", Category: &name}))
	assert.Contains(t, buf.String(), "\n  \"file\": \"a.pdf\"")

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "Finance", back["category"])
	assert.Nil(t, back["highlighted_path"])
}
