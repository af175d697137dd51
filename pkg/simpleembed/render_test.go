package simpleembed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/repo/memory"
	"github.com/tendant/simple-embed/pkg/simpleembed/templates"
)

func renderDoc(t *testing.T, svc simpleembed.Service, sess *simpleembed.Session) (*goquery.Document, string) {
	t.Helper()
	out, err := svc.Render(context.Background(), sess)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out.String()))
	require.NoError(t, err)
	return doc, out.String()
}

func intp(v int) *int { return &v }

func TestRender_Builtin(t *testing.T) {
	svc, err := simpleembed.New(simpleembed.WithRepository(memory.New()))
	require.NoError(t, err)

	t.Run("video wraps provider html", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{
			Type: "video",
			HTML: `<iframe src="https://player.vimeo.com/video/1"></iframe>`,
		}).AddClass("ratio")
		doc, _ := renderDoc(t, svc, sess)
		div := doc.Find("div.ratio")
		require.Equal(t, 1, div.Length())
		src, ok := div.Find("iframe").Attr("src")
		assert.True(t, ok)
		assert.Equal(t, "https://player.vimeo.com/video/1", src)
	})

	t.Run("rich wraps provider html", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{Type: "rich", HTML: `<blockquote>hi</blockquote>`})
		doc, _ := renderDoc(t, svc, sess)
		assert.Equal(t, "hi", doc.Find("div > blockquote").Text())
	})

	t.Run("link escapes title", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{
			Type:      "link",
			Title:     "<b>Tom & Jerry</b>",
			SourceURL: "https://example.com/?a=1&b=2",
		})
		doc, raw := renderDoc(t, svc, sess)
		a := doc.Find("a")
		href, _ := a.Attr("href")
		assert.Equal(t, "https://example.com/?a=1&b=2", href)
		assert.Equal(t, "<b>Tom & Jerry</b>", a.Text())
		assert.NotContains(t, raw, "<b>")
	})

	t.Run("photo", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{
			Type:      "photo",
			Title:     "Sunset",
			SourceURL: "https://example.com/p.jpg",
			Width:     intp(800),
			Height:    intp(600),
		}).AddClass("img-fluid")
		doc, _ := renderDoc(t, svc, sess)
		img := doc.Find("img.img-fluid")
		require.Equal(t, 1, img.Length())
		assert.Equal(t, "https://example.com/p.jpg", img.AttrOr("src", ""))
		assert.Equal(t, "800", img.AttrOr("width", ""))
		assert.Equal(t, "600", img.AttrOr("height", ""))
		assert.Equal(t, "Sunset", img.AttrOr("alt", ""))
	})

	t.Run("photo without dimensions", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{Type: "photo", SourceURL: "https://example.com/p.jpg"})
		doc, _ := renderDoc(t, svc, sess)
		_, ok := doc.Find("img").Attr("width")
		assert.False(t, ok)
	})

	t.Run("unknown and empty types render nothing", func(t *testing.T) {
		for _, typ := range []string{"", "gif"} {
			out, err := svc.Render(context.Background(), svc.NewSession(&simpleembed.EmbedRecord{Type: typ, Title: "x"}))
			require.NoError(t, err)
			assert.Empty(t, out.String())
		}
	})
}

func TestRender_CustomTemplates(t *testing.T) {
	reg := templates.New()
	require.NoError(t, reg.Add("Embed_video", `<figure class="{{.Class}}">{{.HTML}}<figcaption>{{.Title}}</figcaption></figure>`))
	require.NoError(t, reg.Add("Card", `<section data-type="{{.Type}}">{{.Title}}</section>`))

	svc, err := simpleembed.New(
		simpleembed.WithRepository(memory.New()),
		simpleembed.WithTemplates(reg),
	)
	require.NoError(t, err)

	t.Run("type specific template", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{
			Type:  "video",
			Title: "Clip",
			HTML:  `<iframe src="x"></iframe>`,
		}).AddClass("wide")
		doc, _ := renderDoc(t, svc, sess)
		fig := doc.Find("figure.wide")
		require.Equal(t, 1, fig.Length())
		assert.Equal(t, 1, fig.Find("iframe").Length())
		assert.Equal(t, "Clip", fig.Find("figcaption").Text())
	})

	t.Run("no match falls back to builtin", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{Type: "link", Title: "L", SourceURL: "https://example.com"})
		doc, _ := renderDoc(t, svc, sess)
		assert.Equal(t, 1, doc.Find("a").Length())
	})

	t.Run("session template base", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{Type: "link", Title: "L"}).SetTemplate("Card")
		doc, _ := renderDoc(t, svc, sess)
		section := doc.Find("section")
		require.Equal(t, 1, section.Length())
		assert.Equal(t, "link", section.AttrOr("data-type", ""))
	})

	t.Run("template for untyped record", func(t *testing.T) {
		sess := svc.NewSession(&simpleembed.EmbedRecord{Title: "Plain"}).SetTemplate("Card")
		doc, _ := renderDoc(t, svc, sess)
		assert.Equal(t, "Plain", doc.Find("section").Text())
	})
}
