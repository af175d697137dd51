package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-embed/pkg/simpleembed"
)

// Repository implements simpleembed.Repository using in-memory storage
type Repository struct {
	mu            sync.RWMutex
	embeds        map[uuid.UUID]*simpleembed.EmbedRecord
	folders       map[uuid.UUID]*simpleembed.Folder
	foldersByName map[string]uuid.UUID
	assets        map[uuid.UUID]*simpleembed.Asset
	assetsByKey   map[string]uuid.UUID // object_key -> asset_id
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		embeds:        make(map[uuid.UUID]*simpleembed.EmbedRecord),
		folders:       make(map[uuid.UUID]*simpleembed.Folder),
		foldersByName: make(map[string]uuid.UUID),
		assets:        make(map[uuid.UUID]*simpleembed.Asset),
		assetsByKey:   make(map[string]uuid.UUID),
	}
}

// copyEmbed returns a copy that shares no pointers with rec.
func copyEmbed(rec *simpleembed.EmbedRecord) *simpleembed.EmbedRecord {
	c := *rec
	if rec.Width != nil {
		w := *rec.Width
		c.Width = &w
	}
	if rec.Height != nil {
		h := *rec.Height
		c.Height = &h
	}
	if rec.AspectRatio != nil {
		a := *rec.AspectRatio
		c.AspectRatio = &a
	}
	if rec.ImageAssetRef != nil {
		ref := *rec.ImageAssetRef
		c.ImageAssetRef = &ref
	}
	if rec.DeletedAt != nil {
		d := *rec.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

func copyAsset(a *simpleembed.Asset) *simpleembed.Asset {
	c := *a
	if a.OwnerID != nil {
		o := *a.OwnerID
		c.OwnerID = &o
	}
	return &c
}

// Embed operations

func (r *Repository) CreateEmbed(ctx context.Context, rec *simpleembed.EmbedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.embeds[rec.ID]; exists {
		return fmt.Errorf("embed %s already exists", rec.ID)
	}
	r.embeds[rec.ID] = copyEmbed(rec)
	return nil
}

func (r *Repository) GetEmbed(ctx context.Context, id uuid.UUID) (*simpleembed.EmbedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.embeds[id]
	if !exists || rec.DeletedAt != nil {
		return nil, simpleembed.ErrEmbedNotFound
	}
	return copyEmbed(rec), nil
}

func (r *Repository) UpdateEmbed(ctx context.Context, rec *simpleembed.EmbedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.embeds[rec.ID]
	if !exists || existing.DeletedAt != nil {
		return simpleembed.ErrEmbedNotFound
	}
	r.embeds[rec.ID] = copyEmbed(rec)
	return nil
}

func (r *Repository) DeleteEmbed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.embeds[id]
	if !exists || rec.DeletedAt != nil {
		return simpleembed.ErrEmbedNotFound
	}

	now := time.Now().UTC()
	rec.DeletedAt = &now
	rec.UpdatedAt = now
	return nil
}

// ListEmbeds returns live records of kind, newest first. An empty kind
// lists every kind.
func (r *Repository) ListEmbeds(ctx context.Context, kind string) ([]*simpleembed.EmbedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simpleembed.EmbedRecord
	for _, rec := range r.embeds {
		if rec.DeletedAt != nil {
			continue
		}
		if kind != "" && rec.Kind != kind {
			continue
		}
		result = append(result, copyEmbed(rec))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Folder operations

func (r *Repository) CreateFolder(ctx context.Context, folder *simpleembed.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.foldersByName[folder.Name]; exists {
		return fmt.Errorf("folder %q already exists", folder.Name)
	}
	c := *folder
	r.folders[folder.ID] = &c
	r.foldersByName[folder.Name] = folder.ID
	return nil
}

func (r *Repository) GetFolder(ctx context.Context, id uuid.UUID) (*simpleembed.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	folder, exists := r.folders[id]
	if !exists {
		return nil, simpleembed.ErrFolderNotFound
	}
	c := *folder
	return &c, nil
}

func (r *Repository) GetFolderByName(ctx context.Context, name string) (*simpleembed.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.foldersByName[name]
	if !exists {
		return nil, simpleembed.ErrFolderNotFound
	}
	c := *r.folders[id]
	return &c, nil
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *simpleembed.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[asset.ID]; exists {
		return fmt.Errorf("asset %s already exists", asset.ID)
	}
	if asset.ObjectKey != "" {
		if _, taken := r.assetsByKey[asset.ObjectKey]; taken {
			return fmt.Errorf("object key %q already in use", asset.ObjectKey)
		}
		r.assetsByKey[asset.ObjectKey] = asset.ID
	}
	r.assets[asset.ID] = copyAsset(asset)
	return nil
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *simpleembed.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.assets[asset.ID]
	if !exists {
		return simpleembed.ErrAssetNotFound
	}
	if existing.ObjectKey != asset.ObjectKey {
		if owner, taken := r.assetsByKey[asset.ObjectKey]; taken && owner != asset.ID {
			return fmt.Errorf("object key %q already in use", asset.ObjectKey)
		}
		delete(r.assetsByKey, existing.ObjectKey)
		if asset.ObjectKey != "" {
			r.assetsByKey[asset.ObjectKey] = asset.ID
		}
	}
	r.assets[asset.ID] = copyAsset(asset)
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*simpleembed.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, simpleembed.ErrAssetNotFound
	}
	return copyAsset(asset), nil
}

// GetAssetByName returns the oldest asset named name in the folder.
func (r *Repository) GetAssetByName(ctx context.Context, folderID uuid.UUID, name string) (*simpleembed.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *simpleembed.Asset
	for _, asset := range r.assets {
		if asset.FolderID != folderID || asset.Name != name {
			continue
		}
		if found == nil || asset.CreatedAt.Before(found.CreatedAt) {
			found = asset
		}
	}
	if found == nil {
		return nil, simpleembed.ErrAssetNotFound
	}
	return copyAsset(found), nil
}

func (r *Repository) GetAssetByObjectKey(ctx context.Context, objectKey string) (*simpleembed.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.assetsByKey[objectKey]
	if !exists {
		return nil, simpleembed.ErrAssetNotFound
	}
	return copyAsset(r.assets[id]), nil
}
