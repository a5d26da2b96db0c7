package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlinePart_KeepsFullMIMEType(t *testing.T) {
	tests := []struct {
		mimeType string
	}{
		{"image/png"},
		{"image/jpeg"},
		{"image/webp"},
		{"application/pdf"},
	}

	data := []byte{0x25, 0x50, 0x44, 0x46}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			part := inlinePart(tt.mimeType, data)

			blob, ok := part.(genai.Blob)
			require.True(t, ok)
			assert.Equal(t, tt.mimeType, blob.MIMEType)
			assert.Equal(t, data, blob.Data)
		})
	}
}
