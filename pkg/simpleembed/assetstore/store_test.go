package assetstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/objectkey"
	repomemory "github.com/tendant/simple-embed/pkg/simpleembed/repo/memory"
	storagememory "github.com/tendant/simple-embed/pkg/simpleembed/storage/memory"
)

func newStore(t *testing.T, opts ...Option) (*Store, *repomemory.Repository, *storagememory.Backend) {
	t.Helper()
	repo := repomemory.New()
	blobs := storagememory.New()
	store, err := New(repo, blobs, opts...)
	require.NoError(t, err)
	return store, repo, blobs
}

func newAsset(folderID uuid.UUID, name string) *simpleembed.Asset {
	return &simpleembed.Asset{
		FolderID: folderID,
		Name:     name,
		Title:    name + " thumbnail",
		FileName: name + ".png",
		MimeType: "image/png",
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, storagememory.New())
	assert.Error(t, err)
	_, err = New(repomemory.New(), nil)
	assert.Error(t, err)
}

func TestFindOrMakeFolder(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	_, err := store.FindFolder(ctx, "Video")
	assert.ErrorIs(t, err, simpleembed.ErrFolderNotFound)

	made, err := store.FindOrMakeFolder(ctx, "Video")
	require.NoError(t, err)

	again, err := store.FindOrMakeFolder(ctx, "Video")
	require.NoError(t, err)
	assert.Equal(t, made.ID, again.ID)

	found, err := store.FindFolder(ctx, "Video")
	require.NoError(t, err)
	assert.Equal(t, made.ID, found.ID)

	_, err = store.FindOrMakeFolder(ctx, "")
	assert.Error(t, err)
}

func TestSaveAsset_New(t *testing.T) {
	store, _, blobs := newStore(t)
	ctx := context.Background()
	folder, err := store.FindOrMakeFolder(ctx, "Embed")
	require.NoError(t, err)

	asset := newAsset(folder.ID, "clip")
	require.NoError(t, store.SaveAsset(ctx, asset, []byte("png-bytes")))

	assert.True(t, asset.Exists())
	assert.Equal(t, "Embed/clip.png", asset.ObjectKey)
	assert.Equal(t, int64(9), asset.SizeBytes)
	assert.False(t, asset.CreatedAt.IsZero())

	meta, err := blobs.GetObjectMeta(ctx, "Embed/clip.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", meta.ContentType)

	rc, got, err := store.OpenAsset(ctx, asset.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, asset.ID, got.ID)

	found, err := store.FindAsset(ctx, folder.ID, "clip")
	require.NoError(t, err)
	assert.Equal(t, asset.ID, found.ID)
}

func TestSaveAsset_KeyConflictsGetSuffix(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()
	folder, err := store.FindOrMakeFolder(ctx, "Embed")
	require.NoError(t, err)

	first := newAsset(folder.ID, "clip")
	second := newAsset(folder.ID, "clip")
	third := newAsset(folder.ID, "clip")
	require.NoError(t, store.SaveAsset(ctx, first, []byte("1")))
	require.NoError(t, store.SaveAsset(ctx, second, []byte("2")))
	require.NoError(t, store.SaveAsset(ctx, third, []byte("3")))

	assert.Equal(t, "Embed/clip.png", first.ObjectKey)
	assert.Equal(t, "Embed/clip-v2.png", second.ObjectKey)
	assert.Equal(t, "Embed/clip-v3.png", third.ObjectKey)
}

func TestSaveAsset_UpdateInPlace(t *testing.T) {
	store, _, blobs := newStore(t)
	ctx := context.Background()
	folder, err := store.FindOrMakeFolder(ctx, "Embed")
	require.NoError(t, err)

	asset := newAsset(folder.ID, "clip")
	require.NoError(t, store.SaveAsset(ctx, asset, []byte("old")))
	id := asset.ID

	t.Run("same file name keeps key", func(t *testing.T) {
		require.NoError(t, store.SaveAsset(ctx, asset, []byte("newer")))
		assert.Equal(t, id, asset.ID)
		assert.Equal(t, "Embed/clip.png", asset.ObjectKey)

		rc, _, err := store.OpenAsset(ctx, id)
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		rc.Close()
		assert.Equal(t, "newer", string(data))
	})

	t.Run("new file name moves object", func(t *testing.T) {
		asset.Name = "poster"
		asset.FileName = "poster.jpg"
		asset.MimeType = "image/jpeg"
		require.NoError(t, store.SaveAsset(ctx, asset, []byte("jpeg")))
		assert.Equal(t, id, asset.ID)
		assert.Equal(t, "Embed/poster.jpg", asset.ObjectKey)

		_, err := blobs.GetObjectMeta(ctx, "Embed/clip.png")
		assert.ErrorIs(t, err, simpleembed.ErrObjectNotFound)
		assert.ElementsMatch(t, []string{"Embed/poster.jpg"}, blobs.Keys())
	})
}

func TestSaveAsset_CustomGenerator(t *testing.T) {
	store, _, _ := newStore(t, WithKeyGenerator(objectkey.NewGitLikeGenerator()))
	ctx := context.Background()
	folder, err := store.FindOrMakeFolder(ctx, "Embed")
	require.NoError(t, err)

	asset := newAsset(folder.ID, "clip")
	require.NoError(t, store.SaveAsset(ctx, asset, []byte("x")))
	assert.True(t, strings.HasPrefix(asset.ObjectKey, "assets/objects/"), asset.ObjectKey)
	assert.True(t, strings.HasSuffix(asset.ObjectKey, "_clip.png"), asset.ObjectKey)
}

type failingBlobs struct {
	*storagememory.Backend
}

func (f failingBlobs) UploadWithParams(ctx context.Context, r io.Reader, p simpleembed.UploadParams) error {
	return errors.New("disk full")
}

func TestSaveAsset_UploadFailureLeavesAssetUnsaved(t *testing.T) {
	repo := repomemory.New()
	store, err := New(repo, failingBlobs{storagememory.New()})
	require.NoError(t, err)
	ctx := context.Background()

	folder, err := store.FindOrMakeFolder(ctx, "Embed")
	require.NoError(t, err)

	asset := newAsset(folder.ID, "clip")
	err = store.SaveAsset(ctx, asset, []byte("x"))
	require.Error(t, err)
	var storageErr *simpleembed.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.False(t, asset.Exists())

	_, err = store.FindAsset(ctx, folder.ID, "clip")
	assert.ErrorIs(t, err, simpleembed.ErrAssetNotFound)
}

type flakyBlobs struct {
	*storagememory.Backend
	fail bool
}

func (f *flakyBlobs) UploadWithParams(ctx context.Context, r io.Reader, p simpleembed.UploadParams) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Backend.UploadWithParams(ctx, r, p)
}

func TestSaveAsset_FailedOverwriteKeepsRecord(t *testing.T) {
	repo := repomemory.New()
	blobs := &flakyBlobs{Backend: storagememory.New()}
	store, err := New(repo, blobs)
	require.NoError(t, err)
	ctx := context.Background()

	folder, err := store.FindOrMakeFolder(ctx, "Embed")
	require.NoError(t, err)
	asset := newAsset(folder.ID, "clip")
	require.NoError(t, store.SaveAsset(ctx, asset, []byte("old")))

	blobs.fail = true
	asset.MimeType = "image/jpeg"
	err = store.SaveAsset(ctx, asset, []byte("much longer bytes"))
	var storageErr *simpleembed.StorageError
	require.ErrorAs(t, err, &storageErr)

	stored, err := repo.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.SizeBytes)
	assert.Equal(t, "image/png", stored.MimeType)

	rc, _, err := store.OpenAsset(ctx, asset.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "old", string(data))
}

func TestOpenAsset_NotFound(t *testing.T) {
	store, _, _ := newStore(t)
	_, _, err := store.OpenAsset(context.Background(), uuid.New())
	assert.ErrorIs(t, err, simpleembed.ErrAssetNotFound)
}
