package postgres

import (
	"context"
	"fmt"
)

// Schema creates the tables used by Repository. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS embed_folder (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS embed_asset (
	id              UUID PRIMARY KEY,
	folder_id       UUID NOT NULL REFERENCES embed_folder(id),
	name            TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	file_name       TEXT NOT NULL,
	object_key      TEXT NOT NULL UNIQUE,
	mime_type       TEXT NOT NULL,
	size_bytes      BIGINT NOT NULL DEFAULT 0,
	owner_id        UUID,
	show_in_search  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS embed_asset_folder_name_idx ON embed_asset (folder_id, name);

CREATE TABLE IF NOT EXISTS embed (
	id                UUID PRIMARY KEY,
	kind              TEXT NOT NULL,
	title             TEXT NOT NULL DEFAULT '',
	type              TEXT NOT NULL DEFAULT '',
	source_url        TEXT NOT NULL,
	source_image_url  TEXT NOT NULL DEFAULT '',
	html              TEXT NOT NULL DEFAULT '',
	width             INTEGER,
	height            INTEGER,
	aspect_ratio      DOUBLE PRECISION,
	description       TEXT NOT NULL DEFAULT '',
	image_asset_id    UUID REFERENCES embed_asset(id),
	image_folder_id   UUID REFERENCES embed_folder(id),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS embed_kind_created_idx ON embed (kind, created_at DESC) WHERE deleted_at IS NULL;
`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
