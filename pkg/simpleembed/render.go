package simpleembed

import (
	"context"
	"html/template"
	"strconv"

	"github.com/tendant/simple-embed/pkg/simpleembed/markup"
)

// RenderView is the data passed to custom templates.
type RenderView struct {
	Record    *EmbedRecord
	Title     string
	Type      string
	SourceURL string
	HTML      template.HTML
	Width     *int
	Height    *int
	Class     string
}

// builtinRenderer builds structural markup for one embed type.
type builtinRenderer func(rec *EmbedRecord) *markup.Tag

var builtinRenderers = map[EmbedType]builtinRenderer{
	EmbedTypeVideo: renderContainer,
	EmbedTypeRich:  renderContainer,
	EmbedTypeLink:  renderLink,
	EmbedTypePhoto: renderPhoto,
}

// Render resolves the display markup for the session record. A registered
// template matching "<template>_<type>" or "<template>" takes precedence;
// otherwise the type selects a built-in shape. Unknown or unset types
// render as empty markup.
func (s *service) Render(ctx context.Context, sess *Session) (markup.Markup, error) {
	rec := sess.Record
	candidates := s.templateCandidates(sess)

	if s.templates != nil && s.templates.HasTemplate(candidates) {
		return s.templates.RenderWith(candidates, RenderView{
			Record:    rec,
			Title:     rec.Title,
			Type:      rec.Type,
			SourceURL: rec.SourceURL,
			HTML:      template.HTML(rec.HTML),
			Width:     rec.Width,
			Height:    rec.Height,
			Class:     sess.Classes(),
		})
	}

	render, ok := builtinRenderers[EmbedType(rec.Type)]
	if !ok {
		return "", nil
	}
	return render(rec).SetClass(sess.Classes()).Render()
}

func (s *service) templateCandidates(sess *Session) []string {
	base := sess.Template()
	if base == "" {
		base = s.settings.Template
	}
	var candidates []string
	if sess.Record.Type != "" {
		candidates = append(candidates, base+"_"+sess.Record.Type)
	}
	return append(candidates, base)
}

func renderContainer(rec *EmbedRecord) *markup.Tag {
	return markup.New("div").SetInnerHTML(rec.HTML)
}

func renderLink(rec *EmbedRecord) *markup.Tag {
	return markup.New("a").SetText(rec.Title).SetAttribute("href", rec.SourceURL)
}

func renderPhoto(rec *EmbedRecord) *markup.Tag {
	tag := markup.New("img").SetAttribute("src", rec.SourceURL)
	if rec.Width != nil {
		tag.SetAttribute("width", strconv.Itoa(*rec.Width))
	}
	if rec.Height != nil {
		tag.SetAttribute("height", strconv.Itoa(*rec.Height))
	}
	return tag.SetAttribute("alt", rec.Title)
}
