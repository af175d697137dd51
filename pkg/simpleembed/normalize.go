package simpleembed

import (
	"context"
)

// Raw metadata keys with special handling.
const (
	keyHTML         = "html"
	keyType         = "type"
	keyTitle        = "title"
	keyWidth        = "width"
	keyHeight       = "height"
	keyURL          = "url"
	keyThumbnailURL = "thumbnail_url"
)

const thumbnailTitleSuffix = " thumbnail"

// NormalizeResult reports the outcome of one normalization. A result with
// Normalized set and a non-nil AssetErr is the accepted partial state:
// scalar fields were assigned, asset materialization failed.
type NormalizeResult struct {
	// Normalized is false when normalization was skipped (empty or
	// unchanged source URL, or empty provider record).
	Normalized bool

	// ImageURL is the photo or thumbnail URL selected for caching.
	ImageURL string

	// Asset is set when an image was materialized.
	Asset *AssetRef

	// AssetErr captures a failed materialization.
	AssetErr error
}

// Complete reports whether normalization ran and no asset step failed.
func (r *NormalizeResult) Complete() bool {
	return r != nil && r.Normalized && r.AssetErr == nil
}

// fieldSetters maps provider keys onto record fields. Keys missing here
// are dropped.
var fieldSetters = map[string]func(rec *EmbedRecord, raw RawMetadata, key string){
	keyTitle: func(rec *EmbedRecord, raw RawMetadata, key string) {
		rec.Title, _ = raw.String(key)
	},
	keyType: func(rec *EmbedRecord, raw RawMetadata, key string) {
		rec.Type, _ = raw.String(key)
	},
	"description": func(rec *EmbedRecord, raw RawMetadata, key string) {
		rec.Description, _ = raw.String(key)
	},
	keyWidth: func(rec *EmbedRecord, raw RawMetadata, key string) {
		rec.Width = intPtr(raw.Int(key))
	},
	keyHeight: func(rec *EmbedRecord, raw RawMetadata, key string) {
		rec.Height = intPtr(raw.Int(key))
	},
}

// Normalize populates the session record from provider metadata. It runs
// only when the source URL is set and changed since it was last persisted;
// otherwise it is a no-op and nothing is fetched.
func (s *service) Normalize(ctx context.Context, sess *Session) (*NormalizeResult, error) {
	rec := sess.Record
	result := &NormalizeResult{}
	if rec.SourceURL == "" || !sess.SourceURLChanged() {
		return result, nil
	}

	memo, err := sess.metadataFor(ctx, s.fetcher)
	if err != nil {
		return nil, err
	}
	if len(memo) == 0 {
		return result, nil
	}
	raw := memo.Clone()

	// Size and photo fields describe the previous URL until the new record
	// sets them again.
	rec.Width = nil
	rec.Height = nil
	rec.SourceImageURL = ""

	html, _ := raw.String(keyHTML)
	rec.HTML = RewriteForRestrictedProvider(html, rec.SourceURL)
	delete(raw, keyHTML)

	rec.AspectRatio = aspectRatio(raw)

	for key := range raw {
		if set, ok := fieldSetters[key]; ok {
			set(rec, raw, key)
		}
	}

	imageURL, _ := raw.String(keyThumbnailURL)
	titleSuffix := thumbnailTitleSuffix
	if typ, _ := raw.String(keyType); typ == string(EmbedTypePhoto) && raw.Has(keyURL) {
		imageURL, _ = raw.String(keyURL)
		titleSuffix = ""
		rec.SourceImageURL = imageURL
	}

	result.Normalized = true
	result.ImageURL = imageURL

	if s.settings.CacheImageAsAsset && imageURL != "" {
		title, _ := raw.String(keyTitle)
		ref, err := s.materialize(ctx, rec, imageURL, title+titleSuffix)
		if err != nil {
			s.logger.Error("Failed to cache embed image",
				"embed_id", rec.ID,
				"source_url", rec.SourceURL,
				"image_url", imageURL,
				"err", err)
			result.AssetErr = err
			return result, nil
		}
		result.Asset = ref
	}

	return result, nil
}

// aspectRatio returns width/height when both parse to non-zero integers.
func aspectRatio(raw RawMetadata) *float64 {
	width, _ := raw.Int(keyWidth)
	height, _ := raw.Int(keyHeight)
	if width == 0 || height == 0 {
		return nil
	}
	ratio := float64(width) / float64(height)
	return &ratio
}

func intPtr(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}
