package store

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
    identifier   TEXT PRIMARY KEY,
    title        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    date         TEXT NOT NULL DEFAULT '',
    venue        TEXT NOT NULL DEFAULT '',
    collected_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recordings_date ON recordings(date);

CREATE TABLE IF NOT EXISTS reviews (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    identifier  TEXT NOT NULL REFERENCES recordings(identifier),
    stars       REAL NOT NULL,
    text        TEXT NOT NULL DEFAULT '',
    review_date TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_reviews_identifier ON reviews(identifier);

CREATE TABLE IF NOT EXISTS recording_ratings (
    identifier   TEXT PRIMARY KEY,
    rating       REAL NOT NULL DEFAULT 0,
    review_count INTEGER NOT NULL DEFAULT 0,
    source_type  TEXT NOT NULL DEFAULT 'UNKNOWN',
    confidence   REAL NOT NULL DEFAULT 0,
    computed_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS show_ratings (
    show_key        TEXT PRIMARY KEY,
    date            TEXT NOT NULL,
    venue           TEXT NOT NULL DEFAULT '',
    rating          REAL NOT NULL DEFAULT 0,
    confidence      REAL NOT NULL DEFAULT 0,
    best_recording  TEXT NOT NULL DEFAULT '',
    recording_count INTEGER NOT NULL DEFAULT 0,
    computed_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_show_ratings_rating ON show_ratings(rating);
CREATE INDEX IF NOT EXISTS idx_show_ratings_confidence ON show_ratings(confidence);
`
