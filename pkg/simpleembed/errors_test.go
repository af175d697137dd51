package simpleembed

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"fetch", &FetchError{URL: "u", Err: errors.New("x")}, ErrFetchFailed},
		{"download", &DownloadError{URL: "u", Err: errors.New("x")}, ErrDownloadFailed},
		{"not an image", &NotAnImageError{MimeType: "text/html"}, ErrNotAnImage},
		{"unknown extension", &UnknownExtensionError{MimeType: "image/x"}, ErrUnknownExtension},
		{"validation", &ValidationError{Type: "link", Allowed: []string{"video"}}, ErrValidation},
		{"wrapped in embed error", &EmbedError{EmbedID: uuid.New(), Op: "load", Err: ErrEmbedNotFound}, ErrEmbedNotFound},
		{"wrapped in storage error", &StorageError{Key: "k", Op: "upload", Err: ErrObjectNotFound}, ErrObjectNotFound},
		{"fmt wrapped", fmt.Errorf("save asset: %w", &DownloadError{Err: errors.New("x")}), ErrDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	v := &ValidationError{Type: "link", Allowed: []string{"video", "rich"}}
	assert.Equal(t, "The embed type is not one of the allowed types: video, rich", v.Error())

	n := &NotAnImageError{MimeType: "text/html", URL: "https://example.com/x"}
	assert.Equal(t, "image URL does not have an image mime type: text/html (https://example.com/x)", n.Error())

	u := &UnknownExtensionError{MimeType: "image/x-foo"}
	assert.Equal(t, "image mime type does not have known extensions: image/x-foo", u.Error())

	s := &StorageError{Backend: "s3", Key: "k", Op: "delete", Err: errors.New("denied")}
	assert.Equal(t, "storage operation delete failed for key k on backend s3: denied", s.Error())
	s.Backend = ""
	assert.Equal(t, "storage operation delete failed for key k: denied", s.Error())
}
