package web

import (
	"testing"
	"testing/fstest"

	"github.com/osteele/liquid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplatesCoverEveryPage(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	assert.NoError(t, CheckTemplates(renderer))
}

func TestCheckTemplatesReportsMissingPage(t *testing.T) {
	renderer, err := NewRendererFS(fstest.MapFS{
		"layout.html":  {Data: []byte("{{ content }}")},
		"landing.html": {Data: []byte("Welcome")},
	})
	require.NoError(t, err)

	err = CheckTemplates(renderer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "success.html")
}

func TestRenderWrapsPageInLayout(t *testing.T) {
	renderer, err := NewRendererFS(fstest.MapFS{
		"layout.html": {Data: []byte("<main class=\"{{ page }}\">{{ content }}</main>")},
		"hello.html":  {Data: []byte("Hello {{ name | escape }}")},
	})
	require.NoError(t, err)

	out, err := renderer.Render("hello.html", liquid.Bindings{"name": "<Jo>"})
	require.NoError(t, err)
	assert.Equal(t, `<main class="hello">Hello &lt;Jo&gt;</main>`, string(out))
}

func TestRenderUnknownTemplate(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	_, err = renderer.Render("missing.html", nil)
	assert.Error(t, err)
}

func TestRendererRequiresLayout(t *testing.T) {
	_, err := NewRendererFS(fstest.MapFS{
		"hello.html": {Data: []byte("Hello")},
	})
	assert.Error(t, err)
}

func TestSuccessPageDefaultGreeting(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	out, err := renderer.Render(successTemplate, liquid.Bindings{"title": "Thank You", "name": "Friend"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Thank you, Friend!")
}
