package helper

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	require.NoError(t, err)
	b, err := GenerateUUID()
	require.NoError(t, err)

	_, err = uuid.Parse(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]int{"chunks": 5})
	assert.Equal(t, "{\n  \"chunks\": 5\n}\n", buf.String())
}

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML("**1. What is chlorophyll?**\nA) A pigment")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>1. What is chlorophyll?</strong>")
	assert.Contains(t, out, "<br")
	assert.Contains(t, out, "A) A pigment")
}

func TestMarkdownToHTMLOmitsRawHTML(t *testing.T) {
	out, err := MarkdownToHTML("<script>alert(1)</script>\n\n1. Question?")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Question?")
}
