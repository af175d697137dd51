package simpleembed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrEmbedNotFound indicates an embed record was not found
	ErrEmbedNotFound = errors.New("embed not found")

	// ErrAssetNotFound indicates an asset was not found
	ErrAssetNotFound = errors.New("asset not found")

	// ErrFolderNotFound indicates an asset folder was not found
	ErrFolderNotFound = errors.New("folder not found")

	// ErrObjectNotFound indicates a blob was not found in a storage backend
	ErrObjectNotFound = errors.New("object not found")

	// ErrFetchFailed indicates the metadata provider was unreachable or returned garbage
	ErrFetchFailed = errors.New("metadata fetch failed")

	// ErrNoFetcher indicates a fetch was needed but no fetcher is configured
	ErrNoFetcher = errors.New("no metadata fetcher configured")

	// ErrDownloadFailed indicates an image download failed
	ErrDownloadFailed = errors.New("download failed")

	// ErrNotAnImage indicates downloaded bytes are not an image
	ErrNotAnImage = errors.New("not an image")

	// ErrUnknownExtension indicates a sniffed media type has no known file extension
	ErrUnknownExtension = errors.New("unknown file extension")

	// ErrValidation indicates a record was rejected by validation
	ErrValidation = errors.New("validation failed")

	// ErrMissingFields indicates required record fields are empty
	ErrMissingFields = errors.New("missing required fields")
)

// FetchError is returned when the Fetcher fails for a URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch metadata for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// DownloadError is returned when image bytes cannot be downloaded.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is matches ErrDownloadFailed.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailed
}

// NotAnImageError is returned when sniffed content is not image/*.
type NotAnImageError struct {
	MimeType string
	URL      string
}

func (e *NotAnImageError) Error() string {
	return fmt.Sprintf("image URL does not have an image mime type: %s (%s)", e.MimeType, e.URL)
}

// Is matches ErrNotAnImage.
func (e *NotAnImageError) Is(target error) bool {
	return target == ErrNotAnImage
}

// UnknownExtensionError is returned when no extension maps to a sniffed type.
type UnknownExtensionError struct {
	MimeType string
}

func (e *UnknownExtensionError) Error() string {
	return fmt.Sprintf("image mime type does not have known extensions: %s", e.MimeType)
}

// Is matches ErrUnknownExtension.
func (e *UnknownExtensionError) Is(target error) bool {
	return target == ErrUnknownExtension
}

// ValidationError is a user-facing rejection naming the disallowed type and
// the allowed set.
type ValidationError struct {
	Type    string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("The embed type is not one of the allowed types: %s", strings.Join(e.Allowed, ", "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// EmbedError represents an error related to embed operations
type EmbedError struct {
	EmbedID uuid.UUID
	Op      string
	Err     error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embed operation %s failed for embed %s: %v", e.Op, e.EmbedID, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
