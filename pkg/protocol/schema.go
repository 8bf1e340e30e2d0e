package protocol

// SchemaDDL defines the SQLite schema for the escabot state database.
// Tables: escalators, alerts, announcement_channels, menu_messages, events,
// outbox, meta.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Current status per escalator; status NULL means unknown
CREATE TABLE IF NOT EXISTS escalators (
    floor_start INTEGER NOT NULL,
    floor_end INTEGER NOT NULL,
    position INTEGER NOT NULL,
    status TEXT,
    last_update TEXT NOT NULL,
    PRIMARY KEY (floor_start, floor_end)
);

-- Watchlists: one row per (user, escalator) the user wants alerts for
CREATE TABLE IF NOT EXISTS alerts (
    user_id TEXT NOT NULL,
    floor_start INTEGER NOT NULL,
    floor_end INTEGER NOT NULL,
    PRIMARY KEY (user_id, floor_start, floor_end)
);

CREATE INDEX IF NOT EXISTS alerts_by_escalator ON alerts (floor_start, floor_end);

-- Where batched announcements go, one channel per guild
CREATE TABLE IF NOT EXISTS announcement_channels (
    guild_id TEXT PRIMARY KEY,
    channel_id TEXT NOT NULL
);

-- Posted status menus kept in sync with every update
CREATE TABLE IF NOT EXISTS menu_messages (
    channel_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    guild_id TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (channel_id, message_id)
);

-- Update history: reports and expirations
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY,
    type TEXT NOT NULL,
    source TEXT NOT NULL,
    escalators TEXT NOT NULL DEFAULT '',
    status TEXT,
    kind TEXT,
    report_id TEXT,
    payload TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Outgoing chat messages awaiting a gateway bridge
CREATE TABLE IF NOT EXISTS outbox (
    id TEXT PRIMARY KEY,
    action TEXT NOT NULL,
    target TEXT NOT NULL,
    message_id TEXT,
    payload TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Key/value flags (e.g. one-shot migrations)
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// TimeLayout is how timestamps are stored in TEXT columns.
const TimeLayout = "2006-01-02 15:04:05"
