package simpleembed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// defaultImageStem names images whose URL path carries no usable file name.
const defaultImageStem = "image"

// materialize downloads imageURL, checks that it is an image and stores it
// as the record's image asset. Nothing is created when any step before the
// final write fails.
func (s *service) materialize(ctx context.Context, rec *EmbedRecord, imageURL, title string) (*AssetRef, error) {
	stem, err := imageStem(imageURL)
	if err != nil {
		return nil, err
	}

	data, err := s.downloader.Download(ctx, imageURL)
	if err != nil {
		return nil, &DownloadError{URL: imageURL, Err: err}
	}

	mimeType, extensions := s.sniffer.Detect(data)
	if major, _, _ := strings.Cut(mimeType, "/"); major != "image" {
		return nil, &NotAnImageError{MimeType: mimeType, URL: imageURL}
	}
	if len(extensions) == 0 || extensions[0] == "" {
		return nil, &UnknownExtensionError{MimeType: mimeType}
	}
	extension := strings.TrimPrefix(extensions[0], ".")

	asset, err := s.targetAsset(ctx, rec, stem)
	if err != nil {
		return nil, err
	}

	asset.Name = stem
	asset.Title = title
	asset.FileName = fmt.Sprintf("%s.%s", stem, extension)
	asset.MimeType = mimeType

	if !asset.Exists() {
		folder, err := s.assets.FindOrMakeFolder(ctx, s.folderName(rec))
		if err != nil {
			return nil, fmt.Errorf("find or make folder: %w", err)
		}
		asset.FolderID = folder.ID
		asset.ShowInSearch = false
		if principal, ok := PrincipalFromContext(ctx); ok {
			asset.OwnerID = &principal
		}
	}

	if err := s.assets.SaveAsset(ctx, asset, data); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}

	ref := &AssetRef{AssetID: asset.ID, FolderID: asset.FolderID}
	rec.ImageAssetRef = ref
	return ref, nil
}

// targetAsset returns the asset to write into: the record's current image,
// an existing asset with the same name in the destination folder when reuse
// is enabled, or a new asset.
func (s *service) targetAsset(ctx context.Context, rec *EmbedRecord, stem string) (*Asset, error) {
	if rec.ImageAssetRef != nil {
		asset, err := s.assets.GetAsset(ctx, rec.ImageAssetRef.AssetID)
		if err == nil {
			return asset, nil
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("get current asset: %w", err)
		}
	}

	if s.settings.ReuseExistingAsset {
		folder, err := s.assets.FindFolder(ctx, s.folderName(rec))
		switch {
		case err == nil:
			asset, err := s.assets.FindAsset(ctx, folder.ID, stem)
			if err == nil {
				return asset, nil
			}
			if !isNotFound(err) {
				return nil, fmt.Errorf("find asset: %w", err)
			}
		case !errors.Is(err, ErrFolderNotFound):
			return nil, fmt.Errorf("find folder: %w", err)
		}
	}

	return &Asset{}, nil
}

// imageStem derives a file name stem (no extension) from the URL path.
func imageStem(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("parse image URL: %w", err)
	}
	base := path.Base(u.Path)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = defaultImageStem
	}
	return stem, nil
}
