package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"aichat/internal/config"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
  user_id   TEXT NOT NULL,
  id        TEXT NOT NULL,
  title     TEXT NOT NULL,
  timestamp TEXT NOT NULL,
  messages  TEXT NOT NULL,
  PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS votes (
  user_id         TEXT NOT NULL,
  message_id      TEXT NOT NULL,
  chat_id         TEXT NOT NULL,
  vote            TEXT NOT NULL,
  timestamp       TEXT NOT NULL,
  message_content TEXT NOT NULL DEFAULT '',
  model           TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (user_id, message_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_user_chat ON votes (user_id, chat_id);
`

func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg.DatabaseURL, cfg.DatabaseAuthToken)
	if err != nil {
		return nil, err
	}

	driver := "libsql"
	if strings.HasPrefix(dsn, "file:") {
		driver = "sqlite"
	}

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}

	return database, nil
}

// Migrate applies the schema. Statements are idempotent so repeated startup
// runs are safe.
func Migrate(database *sql.DB) error {
	if _, err := database.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func buildDSN(rawURL, authToken string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("empty database url")
	}

	if strings.HasPrefix(rawURL, "file:") {
		return rawURL, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}

	if strings.HasPrefix(rawURL, "libsql://") {
		query := parsed.Query()
		if query.Get("authToken") == "" && strings.TrimSpace(authToken) != "" {
			query.Set("authToken", strings.TrimSpace(authToken))
			parsed.RawQuery = query.Encode()
		}
	}

	return parsed.String(), nil
}
