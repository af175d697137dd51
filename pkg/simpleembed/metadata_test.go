package simpleembed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawMetadataInt(t *testing.T) {
	raw := RawMetadata{
		"int":        640,
		"float":      360.0,
		"number":     json.Number("480"),
		"string":     " 720 ",
		"float_str":  "12.5",
		"empty":      "",
		"word":       "wide",
		"nil":        nil,
		"fractional": json.Number("1.5"),
	}

	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"int", 640, true},
		{"float", 360, true},
		{"number", 480, true},
		{"string", 720, true},
		{"float_str", 12, true},
		{"fractional", 1, true},
		{"empty", 0, false},
		{"word", 0, false},
		{"nil", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := raw.Int(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawMetadataString(t *testing.T) {
	raw := RawMetadata{"title": "Clip", "width": json.Number("640"), "flag": true, "none": nil}

	s, ok := raw.String("title")
	assert.True(t, ok)
	assert.Equal(t, "Clip", s)

	s, ok = raw.String("width")
	assert.True(t, ok)
	assert.Equal(t, "640", s)

	s, ok = raw.String("flag")
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	_, ok = raw.String("none")
	assert.False(t, ok)
	assert.False(t, raw.Has("none"))
	assert.True(t, raw.Has("title"))
}

func TestRawMetadataClone(t *testing.T) {
	raw := RawMetadata{"html": "<iframe></iframe>"}
	clone := raw.Clone()
	delete(clone, "html")
	assert.True(t, raw.Has("html"))
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		raw  RawMetadata
		want *float64
	}{
		{"both set", RawMetadata{"width": 640, "height": 360}, floatPtr(640.0 / 360.0)},
		{"string values", RawMetadata{"width": "100", "height": "50"}, floatPtr(2)},
		{"zero height", RawMetadata{"width": 640, "height": 0}, nil},
		{"missing width", RawMetadata{"height": 360}, nil},
		{"unparseable", RawMetadata{"width": "auto", "height": 360}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aspectRatio(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestImageStem(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://i.vimeocdn.com/video/123_640.jpg", "123_640"},
		{"https://example.com/photos/cat.large.png?w=10", "cat.large"},
		{"https://example.com/", "image"},
		{"https://example.com", "image"},
		{"https://example.com/thumb", "thumb"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := imageStem(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := imageStem("://bad")
	assert.Error(t, err)
}

func floatPtr(f float64) *float64 {
	return &f
}
