package simpleembed

import (
	"time"

	"github.com/google/uuid"
)

// EmbedType is the oEmbed resource type reported by a provider.
type EmbedType string

// Known embed types. Providers may report other values; they are stored
// verbatim and render as empty output.
const (
	EmbedTypeVideo EmbedType = "video"
	EmbedTypeRich  EmbedType = "rich"
	EmbedTypeLink  EmbedType = "link"
	EmbedTypePhoto EmbedType = "photo"
)

// Record kinds shipped with the library.
const (
	KindEmbed = "Embed"
	KindVideo = "Video"
)

// DefaultTemplate is the template base name used when none is set on a session.
const DefaultTemplate = "Embed"

// EmbedRecord is the persisted entity holding normalized third-party
// metadata for a URL.
//
// Width, Height and AspectRatio are nil when unset. ImageAssetRef is only
// assigned when asset caching is enabled and a download succeeded.
type EmbedRecord struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	Title          string     `json:"title,omitempty"`
	Type           string     `json:"type,omitempty"`
	SourceURL      string     `json:"source_url"`
	SourceImageURL string     `json:"source_image_url,omitempty"`
	HTML           string     `json:"html,omitempty"`
	Width          *int       `json:"width,omitempty"`
	Height         *int       `json:"height,omitempty"`
	AspectRatio    *float64   `json:"aspect_ratio,omitempty"`
	Description    string     `json:"description,omitempty"`
	ImageAssetRef  *AssetRef  `json:"image_asset,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// DisplayTitle returns the title shown in listings and breadcrumbs.
func (r *EmbedRecord) DisplayTitle() string {
	return r.Title
}

// MissingFields returns the names of fields that must be set before a
// record can be saved through an editing surface.
func (r *EmbedRecord) MissingFields() []string {
	var missing []string
	if r.SourceURL == "" {
		missing = append(missing, "source_url")
	}
	return missing
}

// EmbedSummary is the compact listing view of a record.
type EmbedSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	SourceURL string    `json:"source_url"`
}

// Summary returns the listing view of the record.
func (r *EmbedRecord) Summary() EmbedSummary {
	return EmbedSummary{ID: r.ID, Title: r.Title, Type: r.Type, SourceURL: r.SourceURL}
}

// AssetRef identifies a stored binary asset and its parent folder.
type AssetRef struct {
	AssetID  uuid.UUID `json:"asset_id"`
	FolderID uuid.UUID `json:"folder_id"`
}

// Asset is a stored image asset. An asset with a zero ID has not been
// persisted yet.
type Asset struct {
	ID           uuid.UUID  `json:"id"`
	FolderID     uuid.UUID  `json:"folder_id"`
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	FileName     string     `json:"file_name"`
	ObjectKey    string     `json:"object_key"`
	MimeType     string     `json:"mime_type"`
	SizeBytes    int64      `json:"size_bytes"`
	OwnerID      *uuid.UUID `json:"owner_id,omitempty"`
	ShowInSearch bool       `json:"show_in_search"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Exists reports whether the asset has been persisted.
func (a *Asset) Exists() bool {
	return a != nil && a.ID != uuid.Nil
}

// Folder groups assets under a name.
type Folder struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile carries per-kind settings. A nil AllowedTypes defers to the
// service-wide allow-list.
type Profile struct {
	Kind         string
	Folder       string
	AllowedTypes []string
}

// DefaultProfiles returns the built-in record kinds.
func DefaultProfiles() []Profile {
	return []Profile{
		{Kind: KindEmbed, Folder: "Embed"},
		{Kind: KindVideo, Folder: "Video", AllowedTypes: []string{string(EmbedTypeVideo)}},
	}
}

// Settings is the read-only configuration surface of the pipeline.
type Settings struct {
	// CacheImageAsAsset downloads the photo or thumbnail into the asset store.
	CacheImageAsAsset bool
	// Folder overrides the per-kind destination folder for cached images.
	Folder string
	// AllowedTypes is the service-wide embed type allow-list.
	AllowedTypes []string
	// ValidateEmbed enforces the allow-list at save time.
	ValidateEmbed bool
	// Template is the default render template base name.
	Template string
	// ReuseExistingAsset looks up an asset by derived name and folder before
	// creating a new one.
	ReuseExistingAsset bool
}
