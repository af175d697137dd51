package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-embed/pkg/simpleembed"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrDuplicate indicates a unique constraint violation.
var ErrDuplicate = errors.New("duplicate entry")

// Repository implements simpleembed.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found: %s", pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Nullable column helpers

func nullInt(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func intFrom(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func nullFloat(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

func floatFrom(v pgtype.Float8) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullUUID(v *uuid.UUID) pgtype.UUID {
	if v == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *v, Valid: true}
}

func uuidFrom(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func assetRefColumns(ref *simpleembed.AssetRef) (pgtype.UUID, pgtype.UUID) {
	if ref == nil {
		return pgtype.UUID{}, pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: ref.AssetID, Valid: true}, pgtype.UUID{Bytes: ref.FolderID, Valid: true}
}

// Embed operations

const embedColumns = `id, kind, title, type, source_url, source_image_url, html,
	width, height, aspect_ratio, description, image_asset_id, image_folder_id,
	created_at, updated_at`

func scanEmbed(row pgx.Row) (*simpleembed.EmbedRecord, error) {
	var rec simpleembed.EmbedRecord
	var width, height pgtype.Int4
	var ratio pgtype.Float8
	var assetID, folderID pgtype.UUID
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.Title, &rec.Type, &rec.SourceURL, &rec.SourceImageURL, &rec.HTML,
		&width, &height, &ratio, &rec.Description, &assetID, &folderID,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Width = intFrom(width)
	rec.Height = intFrom(height)
	rec.AspectRatio = floatFrom(ratio)
	if assetID.Valid {
		rec.ImageAssetRef = &simpleembed.AssetRef{AssetID: assetID.Bytes, FolderID: folderID.Bytes}
	}
	return &rec, nil
}

func (r *Repository) CreateEmbed(ctx context.Context, rec *simpleembed.EmbedRecord) error {
	query := `INSERT INTO embed (` + embedColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	assetID, folderID := assetRefColumns(rec.ImageAssetRef)
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.Kind, rec.Title, rec.Type, rec.SourceURL, rec.SourceImageURL, rec.HTML,
		nullInt(rec.Width), nullInt(rec.Height), nullFloat(rec.AspectRatio), rec.Description,
		assetID, folderID, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create embed", err)
	}
	return nil
}

func (r *Repository) GetEmbed(ctx context.Context, id uuid.UUID) (*simpleembed.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embed WHERE id = $1 AND deleted_at IS NULL`

	rec, err := scanEmbed(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleembed.ErrEmbedNotFound
		}
		return nil, r.handlePostgresError("get embed", err)
	}
	return rec, nil
}

func (r *Repository) UpdateEmbed(ctx context.Context, rec *simpleembed.EmbedRecord) error {
	query := `
		UPDATE embed SET
			kind = $2, title = $3, type = $4, source_url = $5, source_image_url = $6,
			html = $7, width = $8, height = $9, aspect_ratio = $10, description = $11,
			image_asset_id = $12, image_folder_id = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL`

	assetID, folderID := assetRefColumns(rec.ImageAssetRef)
	tag, err := r.db.Exec(ctx, query,
		rec.ID, rec.Kind, rec.Title, rec.Type, rec.SourceURL, rec.SourceImageURL,
		rec.HTML, nullInt(rec.Width), nullInt(rec.Height), nullFloat(rec.AspectRatio), rec.Description,
		assetID, folderID, rec.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update embed", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleembed.ErrEmbedNotFound
	}
	return nil
}

func (r *Repository) DeleteEmbed(ctx context.Context, id uuid.UUID) error {
	// Soft delete: set deleted_at timestamp
	query := `UPDATE embed SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete embed", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleembed.ErrEmbedNotFound
	}
	return nil
}

func (r *Repository) ListEmbeds(ctx context.Context, kind string) ([]*simpleembed.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embed
		WHERE deleted_at IS NULL AND ($1 = '' OR kind = $1)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, kind)
	if err != nil {
		return nil, r.handlePostgresError("list embeds", err)
	}
	defer rows.Close()

	var results []*simpleembed.EmbedRecord
	for rows.Next() {
		rec, err := scanEmbed(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan embed", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate embed rows", err)
	}
	return results, nil
}

// Folder operations

func (r *Repository) CreateFolder(ctx context.Context, folder *simpleembed.Folder) error {
	query := `INSERT INTO embed_folder (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, folder.ID, folder.Name, folder.CreatedAt); err != nil {
		return r.handlePostgresError("create folder", err)
	}
	return nil
}

func (r *Repository) getFolder(ctx context.Context, where string, arg interface{}) (*simpleembed.Folder, error) {
	query := `SELECT id, name, created_at FROM embed_folder WHERE ` + where

	var folder simpleembed.Folder
	err := r.db.QueryRow(ctx, query, arg).Scan(&folder.ID, &folder.Name, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleembed.ErrFolderNotFound
		}
		return nil, r.handlePostgresError("get folder", err)
	}
	return &folder, nil
}

func (r *Repository) GetFolder(ctx context.Context, id uuid.UUID) (*simpleembed.Folder, error) {
	return r.getFolder(ctx, "id = $1", id)
}

func (r *Repository) GetFolderByName(ctx context.Context, name string) (*simpleembed.Folder, error) {
	return r.getFolder(ctx, "name = $1", name)
}

// Asset operations

const assetColumns = `id, folder_id, name, title, file_name, object_key, mime_type,
	size_bytes, owner_id, show_in_search, created_at, updated_at`

func scanAsset(row pgx.Row) (*simpleembed.Asset, error) {
	var asset simpleembed.Asset
	var owner pgtype.UUID
	err := row.Scan(
		&asset.ID, &asset.FolderID, &asset.Name, &asset.Title, &asset.FileName, &asset.ObjectKey,
		&asset.MimeType, &asset.SizeBytes, &owner, &asset.ShowInSearch, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return nil, err
	}
	asset.OwnerID = uuidFrom(owner)
	return &asset, nil
}

func (r *Repository) getAsset(ctx context.Context, operation, where string, args ...interface{}) (*simpleembed.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM embed_asset WHERE ` + where
	asset, err := scanAsset(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleembed.ErrAssetNotFound
		}
		return nil, r.handlePostgresError(operation, err)
	}
	return asset, nil
}

func (r *Repository) CreateAsset(ctx context.Context, asset *simpleembed.Asset) error {
	query := `INSERT INTO embed_asset (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		asset.ID, asset.FolderID, asset.Name, asset.Title, asset.FileName, asset.ObjectKey,
		asset.MimeType, asset.SizeBytes, nullUUID(asset.OwnerID), asset.ShowInSearch,
		asset.CreatedAt, asset.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create asset", err)
	}
	return nil
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *simpleembed.Asset) error {
	query := `
		UPDATE embed_asset SET
			folder_id = $2, name = $3, title = $4, file_name = $5, object_key = $6,
			mime_type = $7, size_bytes = $8, owner_id = $9, show_in_search = $10, updated_at = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		asset.ID, asset.FolderID, asset.Name, asset.Title, asset.FileName, asset.ObjectKey,
		asset.MimeType, asset.SizeBytes, nullUUID(asset.OwnerID), asset.ShowInSearch, asset.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update asset", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleembed.ErrAssetNotFound
	}
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*simpleembed.Asset, error) {
	return r.getAsset(ctx, "get asset", "id = $1", id)
}

func (r *Repository) GetAssetByName(ctx context.Context, folderID uuid.UUID, name string) (*simpleembed.Asset, error) {
	return r.getAsset(ctx, "get asset by name", "folder_id = $1 AND name = $2 ORDER BY created_at LIMIT 1", folderID, name)
}

func (r *Repository) GetAssetByObjectKey(ctx context.Context, objectKey string) (*simpleembed.Asset, error) {
	return r.getAsset(ctx, "get asset by object key", "object_key = $1", objectKey)
}
