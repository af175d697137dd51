// Package assetstore implements simpleembed.AssetStore on top of a
// Repository for asset and folder records and a BlobStore for the bytes.
package assetstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/objectkey"
)

// maxKeyAttempts bounds the "-vN" suffix search for a free object key.
const maxKeyAttempts = 1000

// ErrKeyExhausted indicates no free object key was found.
var ErrKeyExhausted = errors.New("no free object key")

// Store persists image assets.
type Store struct {
	repo   simpleembed.Repository
	blobs  simpleembed.BlobStore
	keys   objectkey.Generator
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKeyGenerator sets the object key strategy (default: folder layout).
func WithKeyGenerator(g objectkey.Generator) Option {
	return func(s *Store) {
		s.keys = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an asset store.
func New(repo simpleembed.Repository, blobs simpleembed.BlobStore, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	s := &Store{repo: repo, blobs: blobs}
	for _, opt := range opts {
		opt(s)
	}
	if s.keys == nil {
		s.keys = objectkey.NewRecommendedGenerator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

func (s *Store) FindFolder(ctx context.Context, name string) (*simpleembed.Folder, error) {
	return s.repo.GetFolderByName(ctx, name)
}

// FindOrMakeFolder returns the named folder, creating it when absent. A
// concurrent creation of the same folder is resolved by reading it back.
func (s *Store) FindOrMakeFolder(ctx context.Context, name string) (*simpleembed.Folder, error) {
	if name == "" {
		return nil, errors.New("folder name is required")
	}
	folder, err := s.repo.GetFolderByName(ctx, name)
	if err == nil {
		return folder, nil
	}
	if !errors.Is(err, simpleembed.ErrFolderNotFound) {
		return nil, err
	}

	folder = &simpleembed.Folder{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		if existing, getErr := s.repo.GetFolderByName(ctx, name); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	s.logger.Info("Created asset folder", "folder_id", folder.ID, "name", name)
	return folder, nil
}

func (s *Store) FindAsset(ctx context.Context, folderID uuid.UUID, name string) (*simpleembed.Asset, error) {
	return s.repo.GetAssetByName(ctx, folderID, name)
}

func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (*simpleembed.Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

// SaveAsset uploads data and writes the asset record. New assets get an ID
// and a fresh object key. Existing assets keep their key unless the file
// name changed, in which case the old object is removed after the write.
func (s *Store) SaveAsset(ctx context.Context, asset *simpleembed.Asset, data []byte) error {
	isNew := !asset.Exists()
	now := time.Now().UTC()

	var previous *simpleembed.Asset
	if !isNew {
		prev, err := s.repo.GetAsset(ctx, asset.ID)
		if err != nil {
			return fmt.Errorf("load asset: %w", err)
		}
		previous = prev
	} else {
		asset.ID = uuid.New()
		asset.CreatedAt = now
	}

	key := asset.ObjectKey
	if previous == nil || previous.FileName != asset.FileName || previous.FolderID != asset.FolderID || key == "" {
		folder, err := s.repo.GetFolder(ctx, asset.FolderID)
		if err != nil {
			return s.abort(asset, isNew, fmt.Errorf("load folder: %w", err))
		}
		key, err = s.uniqueKey(ctx, asset, folder.Name)
		if err != nil {
			return s.abort(asset, isNew, err)
		}
	}

	if !isNew && key == previous.ObjectKey {
		return s.overwriteAsset(ctx, asset, previous, data, now)
	}

	if err := s.upload(ctx, key, asset.MimeType, data); err != nil {
		return s.abort(asset, isNew, err)
	}

	asset.ObjectKey = key
	asset.SizeBytes = int64(len(data))
	asset.UpdatedAt = now

	if isNew {
		if err := s.repo.CreateAsset(ctx, asset); err != nil {
			s.removeObject(ctx, key, "Failed to remove orphaned object")
			return s.abort(asset, isNew, fmt.Errorf("create asset: %w", err))
		}
		return nil
	}

	if err := s.repo.UpdateAsset(ctx, asset); err != nil {
		s.removeObject(ctx, key, "Failed to remove orphaned object")
		return fmt.Errorf("update asset: %w", err)
	}
	if previous.ObjectKey != "" {
		s.removeObject(ctx, previous.ObjectKey, "Failed to remove replaced object")
	}
	return nil
}

// overwriteAsset replaces the bytes of an asset that keeps its object key.
// The record is written first and restored when the upload fails, so the
// stored size and type never describe bytes that were not written.
func (s *Store) overwriteAsset(ctx context.Context, asset, previous *simpleembed.Asset, data []byte, now time.Time) error {
	asset.ObjectKey = previous.ObjectKey
	asset.SizeBytes = int64(len(data))
	asset.UpdatedAt = now

	if err := s.repo.UpdateAsset(ctx, asset); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if err := s.upload(ctx, asset.ObjectKey, asset.MimeType, data); err != nil {
		if restoreErr := s.repo.UpdateAsset(ctx, previous); restoreErr != nil {
			s.logger.Error("Failed to restore asset record", "asset_id", previous.ID, "err", restoreErr)
		}
		return err
	}
	return nil
}

func (s *Store) upload(ctx context.Context, key, mimeType string, data []byte) error {
	err := s.blobs.UploadWithParams(ctx, bytes.NewReader(data), simpleembed.UploadParams{
		ObjectKey: key,
		MimeType:  mimeType,
	})
	if err != nil {
		return &simpleembed.StorageError{Key: key, Op: "upload", Err: err}
	}
	return nil
}

func (s *Store) removeObject(ctx context.Context, key, msg string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn(msg, "object_key", key, "err", err)
	}
}

// abort undoes the ID assignment of a new asset so callers still see it as
// unsaved.
func (s *Store) abort(asset *simpleembed.Asset, isNew bool, err error) error {
	if isNew {
		asset.ID = uuid.Nil
		asset.CreatedAt = time.Time{}
	}
	return err
}

// uniqueKey returns the generated key for asset, suffixed with "-vN" until
// no other asset holds it.
func (s *Store) uniqueKey(ctx context.Context, asset *simpleembed.Asset, folderName string) (string, error) {
	meta := &objectkey.KeyMetadata{
		FolderName: folderName,
		FileName:   asset.FileName,
		MimeType:   asset.MimeType,
	}
	if asset.OwnerID != nil {
		meta.OwnerID = asset.OwnerID.String()
	}
	base := s.keys.GenerateKey(asset.ID, meta)

	for n := 1; n <= maxKeyAttempts; n++ {
		key := objectkey.WithSuffix(base, n)
		holder, err := s.repo.GetAssetByObjectKey(ctx, key)
		if errors.Is(err, simpleembed.ErrAssetNotFound) {
			return key, nil
		}
		if err != nil {
			return "", fmt.Errorf("check object key: %w", err)
		}
		if holder.ID == asset.ID {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrKeyExhausted, base)
}

// OpenAsset returns the stored bytes of an asset. The caller closes the reader.
func (s *Store) OpenAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, *simpleembed.Asset, error) {
	asset, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Download(ctx, asset.ObjectKey)
	if err != nil {
		return nil, nil, &simpleembed.StorageError{Key: asset.ObjectKey, Op: "download", Err: err}
	}
	return rc, asset, nil
}
