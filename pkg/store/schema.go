package store

import "database/sql"

// handle_key holds the lower-cased handle so the unique index treats
// "JaneDoe" and "janedoe" on the same platform as one link.
const schema = `
CREATE TABLE IF NOT EXISTS social_links (
	id TEXT PRIMARY KEY,
	contact_key TEXT NOT NULL,
	platform TEXT NOT NULL,
	handle TEXT NOT NULL,
	handle_key TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	UNIQUE (contact_key, platform, handle_key)
);

CREATE INDEX IF NOT EXISTS idx_social_links_contact ON social_links(contact_key);
CREATE INDEX IF NOT EXISTS idx_social_links_platform ON social_links(platform);
`

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
