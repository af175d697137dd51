// Package sniff detects media types from content bytes.
package sniff

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Sniffer detects a media type and extension candidates from the leading
// bytes of a payload, ignoring URLs and transport headers.
type Sniffer struct{}

// New creates a content sniffer.
func New() *Sniffer {
	return &Sniffer{}
}

// Detect returns the media type without parameters and the ordered file
// extension candidates (no leading dot). The canonical extension comes
// first. Empty input yields an empty type.
func (s *Sniffer) Detect(data []byte) (string, []string) {
	if len(data) == 0 {
		return "", nil
	}

	detected := mimetype.Detect(data)
	mimeType, _, _ := strings.Cut(detected.String(), ";")
	mimeType = strings.TrimSpace(mimeType)

	var extensions []string
	seen := make(map[string]bool)
	add := func(ext string) {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || seen[ext] {
			return
		}
		seen[ext] = true
		extensions = append(extensions, ext)
	}

	add(detected.Extension())
	if aliases, err := mime.ExtensionsByType(mimeType); err == nil {
		for _, ext := range aliases {
			add(ext)
		}
	}

	return mimeType, extensions
}
