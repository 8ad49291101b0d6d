package registry

// SchemaVersion is stored in schema_meta and checked before migrations.
const SchemaVersion = "1"

const schema = `
CREATE TABLE IF NOT EXISTS schema_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS works (
  work_id INTEGER PRIMARY KEY,
  arxiv_id TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  summary TEXT,
  published TEXT,
  updated TEXT,
  comment TEXT,
  primary_category TEXT,
  categories_json TEXT,
  abs_url TEXT,
  pdf_url TEXT,
  journal_ref TEXT,
  doi TEXT,
  created_at TEXT NOT NULL,
  last_seen_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS works_doi_unique
ON works(doi) WHERE doi IS NOT NULL;

CREATE TABLE IF NOT EXISTS authors (
  author_id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS work_authors (
  work_id INTEGER NOT NULL REFERENCES works(work_id) ON DELETE CASCADE,
  author_id INTEGER NOT NULL REFERENCES authors(author_id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  PRIMARY KEY (work_id, position),
  UNIQUE (work_id, author_id)
);

CREATE TABLE IF NOT EXISTS searches (
  search_id INTEGER PRIMARY KEY,
  requested_at TEXT NOT NULL,
  query TEXT NOT NULL,
  url TEXT NOT NULL,
  start INTEGER NOT NULL,
  max_results INTEGER NOT NULL,
  sort_by TEXT,
  sort_order TEXT,
  total_results INTEGER,
  items_per_page INTEGER,
  start_index INTEGER,
  result_count INTEGER NOT NULL,
  raw_sha256 TEXT NOT NULL,
  raw_xml TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS searches_params_idx
ON searches(query, start, max_results, sort_by, sort_order, requested_at);

CREATE TABLE IF NOT EXISTS search_results (
  search_id INTEGER NOT NULL REFERENCES searches(search_id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  arxiv_id TEXT NOT NULL,
  arxiv_id_versioned TEXT NOT NULL,
  work_id INTEGER REFERENCES works(work_id) ON DELETE SET NULL,
  PRIMARY KEY (search_id, position)
);

CREATE TABLE IF NOT EXISTS bibtex (
  work_id INTEGER PRIMARY KEY REFERENCES works(work_id) ON DELETE CASCADE,
  fetched_at TEXT NOT NULL,
  source_url TEXT NOT NULL,
  sha256 TEXT NOT NULL,
  bibtex TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fetches (
  fetch_id INTEGER PRIMARY KEY,
  fetched_at TEXT NOT NULL,
  kind TEXT NOT NULL,
  url TEXT NOT NULL,
  status INTEGER,
  sha256 TEXT,
  bytes INTEGER
);

CREATE TABLE IF NOT EXISTS citation_keys (
  work_id INTEGER PRIMARY KEY REFERENCES works(work_id) ON DELETE CASCADE,
  key TEXT NOT NULL UNIQUE,
  base_key TEXT NOT NULL,
  generated_at TEXT NOT NULL
);
`
