package simpleembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	assets     AssetStore
	fetcher    Fetcher
	downloader Downloader
	sniffer    Sniffer
	templates  TemplateRegistry
	logger     *slog.Logger
	settings   Settings
	profiles   map[string]Profile
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithAssetStore sets the store used for cached images
func WithAssetStore(store AssetStore) Option {
	return func(s *service) {
		s.assets = store
	}
}

// WithFetcher sets the default metadata fetcher
func WithFetcher(f Fetcher) Option {
	return func(s *service) {
		s.fetcher = f
	}
}

// WithDownloader sets the image downloader
func WithDownloader(d Downloader) Option {
	return func(s *service) {
		s.downloader = d
	}
}

// WithSniffer sets the content type sniffer
func WithSniffer(sn Sniffer) Option {
	return func(s *service) {
		s.sniffer = sn
	}
}

// WithTemplates sets the custom template registry
func WithTemplates(r TemplateRegistry) Option {
	return func(s *service) {
		s.templates = r
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithSettings sets the pipeline settings
func WithSettings(settings Settings) Option {
	return func(s *service) {
		s.settings = settings
	}
}

// WithProfile registers or replaces a record kind profile
func WithProfile(p Profile) Option {
	return func(s *service) {
		if s.profiles == nil {
			s.profiles = make(map[string]Profile)
		}
		s.profiles[p.Kind] = p
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		profiles: make(map[string]Profile),
	}
	for _, p := range DefaultProfiles() {
		s.profiles[p.Kind] = p
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.settings.CacheImageAsAsset {
		if s.assets == nil {
			return nil, fmt.Errorf("asset store is required when image caching is enabled")
		}
		if s.downloader == nil {
			return nil, fmt.Errorf("downloader is required when image caching is enabled")
		}
		if s.sniffer == nil {
			return nil, fmt.Errorf("sniffer is required when image caching is enabled")
		}
	}
	if s.settings.Template == "" {
		s.settings.Template = DefaultTemplate
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Session operations

func (s *service) NewSession(rec *EmbedRecord) *Session {
	sess := NewSession(rec)
	if sess.Record.Kind == "" {
		sess.Record.Kind = KindEmbed
	}
	return sess
}

func (s *service) LoadSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	rec, err := s.repository.GetEmbed(ctx, id)
	if err != nil {
		return nil, &EmbedError{EmbedID: id, Op: "load", Err: err}
	}
	return s.NewSession(rec), nil
}

// Save validates, normalizes and persists the session record. Validation
// rejections and fetch failures abort the save; asset failures do not.
func (s *service) Save(ctx context.Context, sess *Session) (*NormalizeResult, error) {
	rec := sess.Record
	if missing := rec.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, missing)
	}

	validation, err := s.Validate(ctx, sess)
	if err != nil {
		return nil, &EmbedError{EmbedID: rec.ID, Op: "validate", Err: err}
	}
	if err := validation.Err(); err != nil {
		return nil, err
	}

	result, err := s.Normalize(ctx, sess)
	if err != nil {
		return nil, &EmbedError{EmbedID: rec.ID, Op: "normalize", Err: err}
	}

	now := time.Now().UTC()
	rec.UpdatedAt = now
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
		rec.CreatedAt = now
		if err := s.repository.CreateEmbed(ctx, rec); err != nil {
			return nil, &EmbedError{EmbedID: rec.ID, Op: "create", Err: err}
		}
	} else {
		if err := s.repository.UpdateEmbed(ctx, rec); err != nil {
			return nil, &EmbedError{EmbedID: rec.ID, Op: "update", Err: err}
		}
	}

	sess.MarkPersisted()
	return result, nil
}

// Record operations

func (s *service) GetEmbed(ctx context.Context, id uuid.UUID) (*EmbedRecord, error) {
	return s.repository.GetEmbed(ctx, id)
}

func (s *service) DeleteEmbed(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteEmbed(ctx, id); err != nil {
		return &EmbedError{EmbedID: id, Op: "delete", Err: err}
	}
	return nil
}

func (s *service) ListEmbeds(ctx context.Context, kind string) ([]*EmbedRecord, error) {
	return s.repository.ListEmbeds(ctx, kind)
}

// Asset operations

func (s *service) OpenAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Asset, error) {
	if s.assets == nil {
		return nil, nil, ErrAssetNotFound
	}
	return s.assets.OpenAsset(ctx, id)
}

// Profile returns the profile registered for kind, or an unrestricted
// profile foldered under the kind name.
func (s *service) Profile(kind string) Profile {
	if kind == "" {
		kind = KindEmbed
	}
	if p, ok := s.profiles[kind]; ok {
		return p
	}
	return Profile{Kind: kind, Folder: kind}
}

// Helper methods

func (s *service) allowedTypes(rec *EmbedRecord) []string {
	if p := s.Profile(rec.Kind); p.AllowedTypes != nil {
		return p.AllowedTypes
	}
	return s.settings.AllowedTypes
}

func (s *service) folderName(rec *EmbedRecord) string {
	if s.settings.Folder != "" {
		return s.settings.Folder
	}
	p := s.Profile(rec.Kind)
	if p.Folder != "" {
		return p.Folder
	}
	return p.Kind
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound) || errors.Is(err, ErrFolderNotFound)
}
