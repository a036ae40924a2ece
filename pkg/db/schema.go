package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Articles: one row per Wikipedia article targeted by a scrape
CREATE TABLE IF NOT EXISTS articles (
    article_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    url TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL,
    ref_count INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_articles_title ON articles(title);
CREATE INDEX IF NOT EXISTS idx_articles_slug ON articles(slug);

-- Refs: extracted citation records, mirroring references.jsonl
CREATE TABLE IF NOT EXISTS refs (
    ref_id INTEGER PRIMARY KEY AUTOINCREMENT,
    article_id INTEGER NOT NULL,
    title TEXT,
    url TEXT NOT NULL,
    norm_url TEXT,
    is_external BOOLEAN DEFAULT 1,
    archive_url TEXT,
    scraped BOOLEAN DEFAULT 0,
    fetcher_used TEXT,
    filter_reason TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (article_id) REFERENCES articles(article_id) ON DELETE CASCADE,
    UNIQUE(article_id, url)
);

CREATE INDEX IF NOT EXISTS idx_refs_article ON refs(article_id);
CREATE INDEX IF NOT EXISTS idx_refs_norm_url ON refs(norm_url);
CREATE INDEX IF NOT EXISTS idx_refs_scraped ON refs(scraped);

-- Fetch attempts: every backend call made while scraping a reference
CREATE TABLE IF NOT EXISTS fetch_attempts (
    attempt_id INTEGER PRIMARY KEY AUTOINCREMENT,
    ref_id INTEGER NOT NULL,
    round INTEGER NOT NULL,
    step TEXT NOT NULL,
    engine TEXT NOT NULL,
    url TEXT NOT NULL,
    success BOOLEAN NOT NULL,
    error_message TEXT,
    attempted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (ref_id) REFERENCES refs(ref_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attempts_ref ON fetch_attempts(ref_id);
CREATE INDEX IF NOT EXISTS idx_attempts_engine ON fetch_attempts(engine);
CREATE INDEX IF NOT EXISTS idx_attempts_success ON fetch_attempts(success);

-- Runs: one row per CLI invocation that touched articles
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    article_count INTEGER NOT NULL,
    success_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,
    skipped_count INTEGER DEFAULT 0,
    output_dir TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);

-- Run articles: per-article outcome within a run
CREATE TABLE IF NOT EXISTS run_articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    article_id INTEGER NOT NULL,
    status TEXT NOT NULL,
    error_message TEXT,
    refs_fetched INTEGER DEFAULT 0,
    refs_filtered INTEGER DEFAULT 0,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    FOREIGN KEY (article_id) REFERENCES articles(article_id) ON DELETE CASCADE,
    UNIQUE(run_id, article_id)
);

CREATE INDEX IF NOT EXISTS idx_run_articles_run ON run_articles(run_id);
CREATE INDEX IF NOT EXISTS idx_run_articles_status ON run_articles(status);
`
