package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ClearCache()

	prompt, err := Get("extraction.json", "system")
	require.NoError(t, err)
	assert.Contains(t, prompt, "graded trading card")
}

func TestGet_MissingFile(t *testing.T) {
	ClearCache()

	_, err := Get("pricing.json", "system")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_MissingKey(t *testing.T) {
	ClearCache()

	_, err := Get("extraction.json", "assistant")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.NotPanics(t, func() {
		prompt := MustGet("extraction.json", "user")
		assert.Contains(t, prompt, "Certification number")
	})

	assert.Panics(t, func() {
		MustGet("pricing.json", "system")
	})
}

func TestFormat(t *testing.T) {
	template := "Describe the {{.Year}} {{.Brand}} card for {{.Player}}."
	data := map[string]string{
		"Year":   "2003",
		"Brand":  "Topps Chrome",
		"Player": "LeBron James",
	}

	assert.Equal(t, "Describe the 2003 Topps Chrome card for LeBron James.", Format(template, data))
}

func TestFormat_UnmatchedPlaceholderSurvives(t *testing.T) {
	template := "Grade {{.Grade}} from {{.Grader}}"
	result := Format(template, map[string]string{"Grade": "10"})
	assert.Equal(t, "Grade 10 from {{.Grader}}", result)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("extraction.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "system")
	assert.Contains(t, keys, "user")
}

func TestCaching(t *testing.T) {
	ClearCache()

	first, err := Get("extraction.json", "system")
	require.NoError(t, err)

	second, err := Get("extraction.json", "system")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
