package simpleembed

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/tendant/simple-embed/pkg/simpleembed/markup"
)

// Service defines the main interface for the simple-embed library
type Service interface {
	// Session operations
	NewSession(rec *EmbedRecord) *Session
	LoadSession(ctx context.Context, id uuid.UUID) (*Session, error)

	// Write path
	Validate(ctx context.Context, s *Session) (*ValidationResult, error)
	Normalize(ctx context.Context, s *Session) (*NormalizeResult, error)
	Save(ctx context.Context, s *Session) (*NormalizeResult, error)

	// Display
	Render(ctx context.Context, s *Session) (markup.Markup, error)

	// Record operations
	GetEmbed(ctx context.Context, id uuid.UUID) (*EmbedRecord, error)
	DeleteEmbed(ctx context.Context, id uuid.UUID) error
	ListEmbeds(ctx context.Context, kind string) ([]*EmbedRecord, error)

	// Asset operations
	OpenAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Asset, error)

	// Profile returns the settings profile for a record kind.
	Profile(kind string) Profile
}
