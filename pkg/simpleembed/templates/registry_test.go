package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	Title string
	Class string
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"Embed.html":              {Data: []byte(`<div class="{{.Class}}">{{.Title}}</div>`)},
		"nested/Embed_video.tmpl": {Data: []byte(`<figure>{{.Title}}</figure>`)},
		"README.md":               {Data: []byte("ignored")},
	}

	r, err := Load(fsys)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Embed", "Embed_video"}, r.Names())
}

func TestRenderWith(t *testing.T) {
	r := New()
	require.NoError(t, r.Add("Embed", `<div class="{{.Class}}">{{.Title}}</div>`))
	require.NoError(t, r.Add("Embed_video", `<figure>{{.Title}}</figure>`))

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"type specific wins", []string{"Embed_video", "Embed"}, "<figure>Clip</figure>"},
		{"falls back to base", []string{"Embed_link", "Embed"}, `<div class="wide">Clip</div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, r.HasTemplate(tt.candidates))
			out, err := r.RenderWith(tt.candidates, view{Title: "Clip", Class: "wide"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}

	t.Run("escapes values", func(t *testing.T) {
		out, err := r.RenderWith([]string{"Embed"}, view{Title: "<b>x</b>"})
		require.NoError(t, err)
		assert.Equal(t, `<div class="">&lt;b&gt;x&lt;/b&gt;</div>`, string(out))
	})

	t.Run("no candidate", func(t *testing.T) {
		assert.False(t, r.HasTemplate([]string{"Card"}))
		_, err := r.RenderWith([]string{"Card"}, nil)
		assert.ErrorIs(t, err, ErrNoTemplate)
	})

	t.Run("parse error", func(t *testing.T) {
		assert.Error(t, r.Add("Broken", "{{.Title"))
	})
}
