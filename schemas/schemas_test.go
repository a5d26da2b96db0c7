package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/jonathan/card-analyzer/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardSchema_ValidJSON(t *testing.T) {
	data, err := os.ReadFile("card.schema.json")
	require.NoError(t, err, "should be able to read schema file")

	var schemaObj map[string]interface{}
	err = json.Unmarshal(data, &schemaObj)
	require.NoError(t, err, "schema file should be valid JSON")

	_, hasType := schemaObj["type"]
	_, hasSchema := schemaObj["$schema"]
	_, hasProps := schemaObj["properties"]
	assert.True(t, hasType && hasSchema && hasProps,
		"schema should declare type, $schema, and properties")
}

func TestCardSchema_AcceptsExtractedCard(t *testing.T) {
	data, err := os.ReadFile("card.schema.json")
	require.NoError(t, err)

	doc := `{
		"grading": {"cert_number": "12345678", "grade": 10, "grade_label": "GEM MT"},
		"player": {"name": "LeBron James", "team": "Cleveland Cavaliers"},
		"details": {"year": 2003, "brand": "Topps", "set_name": "Chrome", "rookie": true},
		"meta": {"sport": "NBA", "rarity": "Rare"}
	}`

	err = schemas.ValidateJSONString(string(data), doc)
	assert.NoError(t, err)
}

func TestCardSchema_AcceptsPartialExtraction(t *testing.T) {
	data, err := os.ReadFile("card.schema.json")
	require.NoError(t, err)

	// Every field is optional; a sparse extraction must still validate.
	err = schemas.ValidateJSONString(string(data), `{"player": {"name": "Mike Trout"}}`)
	assert.NoError(t, err)
}

func TestCardSchema_RejectsBadValues(t *testing.T) {
	data, err := os.ReadFile("card.schema.json")
	require.NoError(t, err)

	cases := []struct {
		name string
		doc  string
	}{
		{"grade above scale", `{"grading": {"grade": 11}}`},
		{"year as string", `{"details": {"year": "2003"}}`},
		{"unknown rarity", `{"meta": {"rarity": "Legendary"}}`},
		{"unexpected top-level field", `{"resale_price": 100}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(string(data), tc.doc)
			assert.Error(t, err)
		})
	}
}
