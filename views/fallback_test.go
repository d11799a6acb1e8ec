package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackEscapesContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Fallback("<b>t</b>", "a & b").Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "&lt;b&gt;t&lt;/b&gt;")
	assert.Contains(t, html, "a &amp; b")
	assert.Contains(t, html, `<html lang="pt-BR">`)
}

func TestDataServiceDown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DataServiceDown().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "serviço de dados")
}
