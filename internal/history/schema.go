package history

const schemaSQL = `
CREATE TABLE IF NOT EXISTS generations (
    session_id           TEXT NOT NULL,
    generation_id        TEXT NOT NULL,
    provider             TEXT,
    model                TEXT,
    total_cost           REAL NOT NULL,
    cache_discount       REAL NOT NULL DEFAULT 0,
    recorded_at          TEXT NOT NULL,
    PRIMARY KEY (session_id, generation_id)
);

CREATE INDEX IF NOT EXISTS idx_generations_recorded ON generations(recorded_at);
`
