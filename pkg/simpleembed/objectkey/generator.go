package objectkey

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for asset object key strategies
type Generator interface {
	// GenerateKey creates an object key for storage backends
	GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	FolderName string
	FileName   string
	MimeType   string
	OwnerID    string
}

// FolderGenerator mirrors the asset folder layout: {folder}/{filename}.
// Keys are readable but not unique; callers resolve conflicts with WithSuffix.
type FolderGenerator struct{}

func NewFolderGenerator() *FolderGenerator {
	return &FolderGenerator{}
}

func (g *FolderGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	if metadata == nil || metadata.FileName == "" {
		return fmt.Sprintf("assets/%s", assetID)
	}
	name := sanitizeFilename(metadata.FileName)
	if metadata.FolderName == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", sanitizeFilename(metadata.FolderName), name)
}

// GitLikeGenerator provides Git-style sharded storage
// Structure: assets/objects/ab/cd1234ef5678_filename
type GitLikeGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewGitLikeGenerator() *GitLikeGenerator {
	return &GitLikeGenerator{
		ShardLength: 2,
	}
}

func (g *GitLikeGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	idStr := strings.ReplaceAll(assetID.String(), "-", "")

	shard := g.ShardLength
	if shard <= 0 || shard > len(idStr) {
		shard = 2
	}
	shardDir := idStr[:shard]
	filename := idStr[shard:]
	if metadata != nil && metadata.FileName != "" {
		filename = fmt.Sprintf("%s_%s", filename, sanitizeFilename(metadata.FileName))
	}

	return fmt.Sprintf("assets/objects/%s/%s", shardDir, filename)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(assetID uuid.UUID, metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(assetID uuid.UUID, metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(assetID uuid.UUID, metadata *KeyMetadata) string {
	return g.GenerateFunc(assetID, metadata)
}

// WithSuffix inserts "-v{n}" before the extension of key, so
// "Embed/clip.png" becomes "Embed/clip-v2.png". n below 2 returns key.
func WithSuffix(key string, n int) string {
	if n < 2 {
		return key
	}
	ext := path.Ext(key)
	return fmt.Sprintf("%s-v%d%s", strings.TrimSuffix(key, ext), n, ext)
}

func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(filename)
}

// NewRecommendedGenerator returns the default generator for asset stores
func NewRecommendedGenerator() Generator {
	return NewFolderGenerator()
}

// NewByName returns the generator registered under name: "folder",
// "git-like" or "git-like-3". Unknown names return nil.
func NewByName(name string) Generator {
	switch name {
	case "", "folder":
		return NewFolderGenerator()
	case "git-like":
		return NewGitLikeGenerator()
	case "git-like-3":
		return &GitLikeGenerator{ShardLength: 3}
	}
	return nil
}
