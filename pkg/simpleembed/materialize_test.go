package simpleembed_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/assetstore"
	"github.com/tendant/simple-embed/pkg/simpleembed/download"
	"github.com/tendant/simple-embed/pkg/simpleembed/fetcher"
	"github.com/tendant/simple-embed/pkg/simpleembed/repo/memory"
	"github.com/tendant/simple-embed/pkg/simpleembed/sniff"
	memorystorage "github.com/tendant/simple-embed/pkg/simpleembed/storage/memory"
)

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		switch r.URL.Path {
		case "/pic.png", "/other/pic.png":
			require.NoError(t, png.Encode(&buf, img))
		case "/thumb.jpg", "/thumb2.jpg":
			require.NoError(t, jpeg.Encode(&buf, img, nil))
		case "/page.png":
			buf.WriteString("<html><body>not really a png</body></html>")
		default:
			http.NotFound(w, r)
			return
		}
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

type cachingEnv struct {
	svc     simpleembed.Service
	repo    *memory.Repository
	blobs   *memorystorage.Backend
	fetcher *fetcher.Static
	images  *httptest.Server
}

func newCachingEnv(t *testing.T, settings simpleembed.Settings, opts ...simpleembed.Option) *cachingEnv {
	t.Helper()
	settings.CacheImageAsAsset = true
	repo := memory.New()
	blobs := memorystorage.New()
	store, err := assetstore.New(repo, blobs)
	require.NoError(t, err)
	static := fetcher.NewStatic(nil)

	options := append([]simpleembed.Option{
		simpleembed.WithRepository(repo),
		simpleembed.WithAssetStore(store),
		simpleembed.WithFetcher(static),
		simpleembed.WithDownloader(download.New(download.Config{})),
		simpleembed.WithSniffer(sniff.New()),
		simpleembed.WithSettings(settings),
	}, opts...)
	svc, err := simpleembed.New(options...)
	require.NoError(t, err)
	return &cachingEnv{svc: svc, repo: repo, blobs: blobs, fetcher: static, images: imageServer(t)}
}

func (e *cachingEnv) save(t *testing.T, ctx context.Context, rec *simpleembed.EmbedRecord) (*simpleembed.Session, *simpleembed.NormalizeResult) {
	t.Helper()
	sess := e.svc.NewSession(rec)
	result, err := e.svc.Save(ctx, sess)
	require.NoError(t, err)
	return sess, result
}

func TestMaterialize_Photo(t *testing.T) {
	env := newCachingEnv(t, simpleembed.Settings{})
	photoURL := env.images.URL + "/pic.png"
	env.fetcher.Set("https://flickr.com/p/1", simpleembed.RawMetadata{
		"type":          "photo",
		"title":         "Sunset",
		"url":           photoURL,
		"thumbnail_url": env.images.URL + "/thumb.jpg",
	})

	owner := uuid.New()
	ctx := simpleembed.ContextWithPrincipal(context.Background(), owner)
	sess, result := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://flickr.com/p/1"})

	require.True(t, result.Complete())
	assert.Equal(t, photoURL, result.ImageURL)
	assert.Equal(t, photoURL, sess.Record.SourceImageURL)
	require.NotNil(t, sess.Record.ImageAssetRef)

	asset, err := env.repo.GetAsset(ctx, sess.Record.ImageAssetRef.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "pic", asset.Name)
	assert.Equal(t, "Sunset", asset.Title)
	assert.Equal(t, "pic.png", asset.FileName)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, "Embed/pic.png", asset.ObjectKey)
	assert.False(t, asset.ShowInSearch)
	require.NotNil(t, asset.OwnerID)
	assert.Equal(t, owner, *asset.OwnerID)

	folder, err := env.repo.GetFolder(ctx, asset.FolderID)
	require.NoError(t, err)
	assert.Equal(t, "Embed", folder.Name)

	rc, opened, err := env.svc.OpenAsset(ctx, asset.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, opened.ID)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestMaterialize_Thumbnail(t *testing.T) {
	env := newCachingEnv(t, simpleembed.Settings{Folder: "Media"})
	env.fetcher.Set("https://vimeo.com/9", simpleembed.RawMetadata{
		"type":          "video",
		"title":         "Clip",
		"thumbnail_url": env.images.URL + "/thumb.jpg",
	})

	ctx := context.Background()
	sess, result := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://vimeo.com/9"})
	require.True(t, result.Complete())
	assert.Empty(t, sess.Record.SourceImageURL)
	require.NotNil(t, sess.Record.ImageAssetRef)

	asset, err := env.repo.GetAsset(ctx, sess.Record.ImageAssetRef.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "Clip thumbnail", asset.Title)
	assert.Equal(t, "thumb.jpg", asset.FileName)
	assert.Equal(t, "image/jpeg", asset.MimeType)
	assert.Equal(t, "Media/thumb.jpg", asset.ObjectKey)
	assert.Nil(t, asset.OwnerID)
}

func TestMaterialize_Failures(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		target error
	}{
		{"not an image", "/page.png", simpleembed.ErrNotAnImage},
		{"download failure", "/missing.png", simpleembed.ErrDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCachingEnv(t, simpleembed.Settings{})
			env.fetcher.Set("https://example.com/x", simpleembed.RawMetadata{
				"type":          "rich",
				"title":         "Rich",
				"thumbnail_url": env.images.URL + tt.path,
			})

			ctx := context.Background()
			sess, result := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://example.com/x"})

			// scalar fields are kept, the image is not
			assert.True(t, result.Normalized)
			assert.False(t, result.Complete())
			assert.ErrorIs(t, result.AssetErr, tt.target)
			assert.Equal(t, "Rich", sess.Record.Title)
			assert.Nil(t, sess.Record.ImageAssetRef)
			assert.Empty(t, env.blobs.Keys())

			stored, err := env.svc.GetEmbed(ctx, sess.Record.ID)
			require.NoError(t, err)
			assert.Equal(t, "Rich", stored.Title)
		})
	}
}

// extensionlessSniffer recognizes an image type it has no extension for.
type extensionlessSniffer struct{}

func (extensionlessSniffer) Detect(data []byte) (string, []string) {
	return "image/x-foo", nil
}

func TestMaterialize_UnknownExtension(t *testing.T) {
	env := newCachingEnv(t, simpleembed.Settings{}, simpleembed.WithSniffer(extensionlessSniffer{}))
	env.fetcher.Set("https://example.com/odd", simpleembed.RawMetadata{
		"type":          "rich",
		"title":         "Odd",
		"thumbnail_url": env.images.URL + "/pic.png",
	})

	ctx := context.Background()
	sess, result := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://example.com/odd"})

	assert.True(t, result.Normalized)
	assert.ErrorIs(t, result.AssetErr, simpleembed.ErrUnknownExtension)
	var extErr *simpleembed.UnknownExtensionError
	require.ErrorAs(t, result.AssetErr, &extErr)
	assert.Equal(t, "image/x-foo", extErr.MimeType)

	assert.Equal(t, "Odd", sess.Record.Title)
	assert.Nil(t, sess.Record.ImageAssetRef)
	assert.Empty(t, env.blobs.Keys())
	_, err := env.repo.GetFolderByName(ctx, "Embed")
	assert.ErrorIs(t, err, simpleembed.ErrFolderNotFound)
}

func TestMaterialize_UpdatesCurrentAsset(t *testing.T) {
	env := newCachingEnv(t, simpleembed.Settings{})
	env.fetcher.Set("https://vimeo.com/1", simpleembed.RawMetadata{
		"type": "video", "title": "One", "thumbnail_url": env.images.URL + "/thumb.jpg",
	})
	env.fetcher.Set("https://vimeo.com/2", simpleembed.RawMetadata{
		"type": "video", "title": "Two", "thumbnail_url": env.images.URL + "/thumb2.jpg",
	})

	ctx := context.Background()
	first, _ := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://vimeo.com/1"})
	assetID := first.Record.ImageAssetRef.AssetID

	sess, err := env.svc.LoadSession(ctx, first.Record.ID)
	require.NoError(t, err)
	sess.Record.SourceURL = "https://vimeo.com/2"
	result, err := env.svc.Save(ctx, sess)
	require.NoError(t, err)
	require.True(t, result.Complete())

	assert.Equal(t, assetID, sess.Record.ImageAssetRef.AssetID)
	asset, err := env.repo.GetAsset(ctx, assetID)
	require.NoError(t, err)
	assert.Equal(t, "thumb2", asset.Name)
	assert.Equal(t, "Two thumbnail", asset.Title)
	assert.Equal(t, "Embed/thumb2.jpg", asset.ObjectKey)
	assert.Equal(t, []string{"Embed/thumb2.jpg"}, env.blobs.Keys())
}

func TestMaterialize_ReuseExistingAsset(t *testing.T) {
	for _, reuse := range []bool{true, false} {
		env := newCachingEnv(t, simpleembed.Settings{ReuseExistingAsset: reuse})
		env.fetcher.Set("https://example.com/a", simpleembed.RawMetadata{"type": "photo", "url": env.images.URL + "/pic.png"})
		env.fetcher.Set("https://example.com/b", simpleembed.RawMetadata{"type": "photo", "url": env.images.URL + "/other/pic.png"})

		ctx := context.Background()
		a, _ := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://example.com/a"})
		b, _ := env.save(t, ctx, &simpleembed.EmbedRecord{SourceURL: "https://example.com/b"})
		require.NotNil(t, a.Record.ImageAssetRef)
		require.NotNil(t, b.Record.ImageAssetRef)

		if reuse {
			assert.Equal(t, a.Record.ImageAssetRef.AssetID, b.Record.ImageAssetRef.AssetID)
			assert.Len(t, env.blobs.Keys(), 1)
		} else {
			assert.NotEqual(t, a.Record.ImageAssetRef.AssetID, b.Record.ImageAssetRef.AssetID)
			assert.ElementsMatch(t, []string{"Embed/pic.png", "Embed/pic-v2.png"}, env.blobs.Keys())
		}
	}
}

func TestOpenAsset_WithoutStore(t *testing.T) {
	svc, err := simpleembed.New(simpleembed.WithRepository(memory.New()))
	require.NoError(t, err)
	_, _, err = svc.OpenAsset(context.Background(), uuid.New())
	assert.ErrorIs(t, err, simpleembed.ErrAssetNotFound)
}
