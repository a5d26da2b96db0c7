package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["grading"],
	"properties": {
		"grading": {
			"type": "object",
			"properties": {
				"cert_number": {"type": "string"},
				"grade": {"type": "number", "minimum": 1, "maximum": 10}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

func TestValidateJSONString_Valid(t *testing.T) {
	doc := `{"grading": {"cert_number": "12345678", "grade": 10}}`

	err := ValidateJSONString(testSchema, doc)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingRequired(t *testing.T) {
	doc := `{}`

	err := ValidateJSONString(testSchema, doc)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_WrongType(t *testing.T) {
	doc := `{"grading": {"cert_number": 12345678}}`

	err := ValidateJSONString(testSchema, doc)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, validationErr.Error(), "cert_number")
}

func TestValidateJSONString_OutOfRange(t *testing.T) {
	doc := `{"grading": {"grade": 11}}`

	err := ValidateJSONString(testSchema, doc)
	require.Error(t, err)
}

func TestValidateJSONString_UnknownField(t *testing.T) {
	doc := `{"grading": {}, "unexpected": true}`

	err := ValidateJSONString(testSchema, doc)
	require.Error(t, err)
}

func TestValidateJSONString_MalformedSchema(t *testing.T) {
	err := ValidateJSONString(`{not json`, `{}`)
	require.Error(t, err)

	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "error should be SchemaLoadError type")
}

func TestLoadSchema_NotFound(t *testing.T) {
	_, err := LoadSchema("schemas/nonexistent.schema.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadSchema_CardSchema(t *testing.T) {
	content, err := LoadSchema("schemas/card.schema.json")
	require.NoError(t, err)
	assert.Contains(t, content, "ExtractedCard")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "grading.grade", Message: "must be <= 10"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "grading.grade")
	assert.Contains(t, msg, "must be <= 10")
}
