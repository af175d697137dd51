package simpleembed

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-embed/pkg/simpleembed/markup"
)

// Fetcher returns provider metadata for a URL.
type Fetcher interface {
	FetchFrom(ctx context.Context, url string) (RawMetadata, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (RawMetadata, error)

// FetchFrom calls f.
func (f FetcherFunc) FetchFrom(ctx context.Context, url string) (RawMetadata, error) {
	return f(ctx, url)
}

// Downloader fetches the raw bytes behind a URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Sniffer detects a media type and its ordered extension candidates from
// content bytes. Extensions are returned without a leading dot.
type Sniffer interface {
	Detect(data []byte) (mimeType string, extensions []string)
}

// AssetStore creates and updates stored image assets and their folders.
type AssetStore interface {
	// FindFolder returns the folder with the given name or ErrFolderNotFound.
	FindFolder(ctx context.Context, name string) (*Folder, error)

	// FindOrMakeFolder returns the folder with the given name, creating it if absent.
	FindOrMakeFolder(ctx context.Context, name string) (*Folder, error)

	// FindAsset returns the asset with the given logical name in a folder or ErrAssetNotFound.
	FindAsset(ctx context.Context, folderID uuid.UUID, name string) (*Asset, error)

	// GetAsset returns an asset by ID or ErrAssetNotFound.
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)

	// SaveAsset writes data under asset.FileName and persists the asset,
	// assigning an ID when the asset is new.
	SaveAsset(ctx context.Context, asset *Asset, data []byte) error

	// OpenAsset returns a reader for the stored bytes of an asset.
	OpenAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Asset, error)
}

// TemplateRegistry resolves custom renderers by ordered candidate names.
type TemplateRegistry interface {
	// HasTemplate reports whether any candidate is registered.
	HasTemplate(names []string) bool

	// RenderWith renders data with the first registered candidate.
	RenderWith(names []string, data interface{}) (markup.Markup, error)
}

// BlobStore defines the interface for asset byte storage backends
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Repository defines the interface for embed, asset and folder persistence
type Repository interface {
	// Embed operations
	CreateEmbed(ctx context.Context, rec *EmbedRecord) error
	GetEmbed(ctx context.Context, id uuid.UUID) (*EmbedRecord, error)
	UpdateEmbed(ctx context.Context, rec *EmbedRecord) error
	DeleteEmbed(ctx context.Context, id uuid.UUID) error
	ListEmbeds(ctx context.Context, kind string) ([]*EmbedRecord, error)

	// Folder operations
	CreateFolder(ctx context.Context, folder *Folder) error
	GetFolder(ctx context.Context, id uuid.UUID) (*Folder, error)
	GetFolderByName(ctx context.Context, name string) (*Folder, error)

	// Asset operations
	CreateAsset(ctx context.Context, asset *Asset) error
	UpdateAsset(ctx context.Context, asset *Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetAssetByName(ctx context.Context, folderID uuid.UUID, name string) (*Asset, error)
	GetAssetByObjectKey(ctx context.Context, objectKey string) (*Asset, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
