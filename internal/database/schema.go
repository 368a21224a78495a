package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent. Cascades are
// declared here as well as performed explicitly by the repositories.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		name          VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          ENUM('VIEWER','MAINTAINER','ADMIN') NOT NULL DEFAULT 'VIEWER',
		refresh_token CHAR(64)        NULL,
		created_at    DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email),
		KEY idx_users_refresh_token (refresh_token)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS themes (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name       VARCHAR(255)    NOT NULL,
		parent_id  BIGINT UNSIGNED NULL,
		created_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY uq_themes_name (name),
		CONSTRAINT fk_themes_parent FOREIGN KEY (parent_id) REFERENCES themes (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS token_groups (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name       VARCHAR(255)    NOT NULL,
		parent_id  BIGINT UNSIGNED NULL,
		created_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		CONSTRAINT fk_token_groups_parent FOREIGN KEY (parent_id) REFERENCES token_groups (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name       VARCHAR(255)    NOT NULL,
		group_id   BIGINT UNSIGNED NULL,
		created_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		CONSTRAINT fk_tokens_group FOREIGN KEY (group_id) REFERENCES token_groups (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS token_values (
		id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		value    TEXT            NOT NULL,
		token_id BIGINT UNSIGNED NOT NULL,
		theme_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_token_values_pair (token_id, theme_id),
		CONSTRAINT fk_token_values_token FOREIGN KEY (token_id) REFERENCES tokens (id) ON DELETE CASCADE,
		CONSTRAINT fk_token_values_theme FOREIGN KEY (theme_id) REFERENCES themes (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
