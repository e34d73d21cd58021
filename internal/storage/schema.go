package storage

const schema = `
-- One row per key. Values are opaque strings (card records are JSON).
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME
);
`
