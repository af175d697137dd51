// Package markup builds single HTML elements for embed rendering.
package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup is rendered HTML that is safe to emit verbatim.
type Markup string

// String returns the markup as a string.
func (m Markup) String() string {
	return string(m)
}

// Tag is an element under construction. Attributes render in the order
// they were first set.
type Tag struct {
	name      string
	attrs     []html.Attribute
	text      string
	innerHTML string
	raw       bool
}

// New starts an element with the given tag name.
func New(name string) *Tag {
	return &Tag{name: strings.ToLower(name)}
}

// SetAttribute sets an attribute, replacing any previous value.
func (t *Tag) SetAttribute(key, value string) *Tag {
	for i := range t.attrs {
		if t.attrs[i].Key == key {
			t.attrs[i].Val = value
			return t
		}
	}
	t.attrs = append(t.attrs, html.Attribute{Key: key, Val: value})
	return t
}

// Attribute returns the value of an attribute.
func (t *Tag) Attribute(key string) (string, bool) {
	for _, a := range t.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetClass sets the class attribute. An empty class leaves the tag unchanged.
func (t *Tag) SetClass(class string) *Tag {
	if class == "" {
		return t
	}
	return t.SetAttribute("class", class)
}

// SetText sets escaped text content.
func (t *Tag) SetText(text string) *Tag {
	t.text = text
	t.raw = false
	return t
}

// SetInnerHTML sets unescaped content.
func (t *Tag) SetInnerHTML(content string) *Tag {
	t.innerHTML = content
	t.raw = true
	return t
}

// Render serializes the element.
func (t *Tag) Render() (Markup, error) {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     t.name,
		DataAtom: atom.Lookup([]byte(t.name)),
		Attr:     append([]html.Attribute(nil), t.attrs...),
	}

	switch {
	case t.raw && t.innerHTML != "":
		node.AppendChild(&html.Node{Type: html.RawNode, Data: t.innerHTML})
	case !t.raw && t.text != "" && !isVoid(t.name):
		node.AppendChild(&html.Node{Type: html.TextNode, Data: t.text})
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", err
	}
	return Markup(buf.String()), nil
}

func isVoid(name string) bool {
	switch name {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"keygen", "link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}
