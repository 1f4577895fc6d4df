package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// Schema history for the study tracker. Migrations are embedded as Go
// strings so the binary carries its own schema.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_identity", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_progress", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_mentor_and_usage", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    uid            TEXT PRIMARY KEY,
    email          TEXT NOT NULL UNIQUE,
    password_hash  TEXT NOT NULL,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sessions (
    token      TEXT PRIMARY KEY,
    uid        TEXT NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_uid ON sessions(uid);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS action_codes (
    code       TEXT PRIMARY KEY,
    uid        TEXT NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
    kind       TEXT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    used_at    TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_action_codes_uid ON action_codes(uid);
`

const migration001Down = `
DROP TABLE IF EXISTS action_codes;
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS users;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS vocabulary (
    id          TEXT PRIMARY KEY,
    uid         TEXT NOT NULL,
    word        TEXT NOT NULL,
    translation TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'not_started',
    date_added  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_uid ON vocabulary(uid);
CREATE INDEX IF NOT EXISTS idx_vocabulary_uid_category ON vocabulary(uid, category);

CREATE TABLE IF NOT EXISTS skills (
    id         TEXT PRIMARY KEY,
    uid        TEXT NOT NULL,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'not_started',
    subtasks   JSONB NOT NULL DEFAULT '[]',
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_skills_uid ON skills(uid);

CREATE TABLE IF NOT EXISTS portfolio (
    id         TEXT PRIMARY KEY,
    uid        TEXT NOT NULL,
    title      TEXT NOT NULL,
    link       TEXT NOT NULL,
    type       TEXT NOT NULL,
    video_id   TEXT NOT NULL DEFAULT '',
    is_top     BOOLEAN NOT NULL DEFAULT FALSE,
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_portfolio_uid ON portfolio(uid);

CREATE TABLE IF NOT EXISTS user_settings (
    uid           TEXT PRIMARY KEY,
    categories    JSONB NOT NULL DEFAULT '["General"]',
    settings      JSONB NOT NULL DEFAULT '{}',
    earned_badges JSONB NOT NULL DEFAULT '[]',
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration002Down = `
DROP TABLE IF EXISTS user_settings;
DROP TABLE IF EXISTS portfolio;
DROP TABLE IF EXISTS skills;
DROP TABLE IF EXISTS vocabulary;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS mentor_codes (
    code       TEXT PRIMARY KEY,
    uid        TEXT NOT NULL UNIQUE,
    enabled    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS usage_counters (
    scope      TEXT NOT NULL,
    day_key    TEXT NOT NULL,
    count      BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (scope, day_key)
);

CREATE INDEX IF NOT EXISTS idx_usage_counters_day ON usage_counters(day_key);
`

const migration003Down = `
DROP TABLE IF EXISTS usage_counters;
DROP TABLE IF EXISTS mentor_codes;
`
