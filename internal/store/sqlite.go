package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/basketwise/compare-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS grocery_items (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS platform_selections (
	id           TEXT PRIMARY KEY,
	owner        TEXT NOT NULL,
	pincode      TEXT NOT NULL,
	platform_ids TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scraped_results (
	id            TEXT PRIMARY KEY,
	owner         TEXT NOT NULL,
	platform_id   TEXT NOT NULL,
	grocery_item  TEXT NOT NULL,
	product_name  TEXT NOT NULL,
	price         REAL NOT NULL CHECK (price >= 0),
	unit_size     TEXT NOT NULL DEFAULT '',
	special_offer TEXT NOT NULL DEFAULT '',
	is_available  INTEGER NOT NULL DEFAULT 1,
	scraped_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_grocery_items_owner ON grocery_items(owner);
CREATE INDEX IF NOT EXISTS idx_platform_selections_owner ON platform_selections(owner);
CREATE INDEX IF NOT EXISTS idx_scraped_results_owner ON scraped_results(owner);
CREATE INDEX IF NOT EXISTS idx_scraped_results_owner_price ON scraped_results(owner, price);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddItem(ctx context.Context, owner, name string) (*model.GroceryItem, error) {
	name, err := model.NormalizeItemName(name)
	if err != nil {
		return nil, err
	}

	item := &model.GroceryItem{
		ID:        uuid.New().String(),
		Owner:     owner,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO grocery_items (id, owner, name, created_at) VALUES (?, ?, ?, ?)`,
		item.ID, item.Owner, item.Name, item.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert grocery item")
	}
	return item, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, owner string) ([]model.GroceryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, name, created_at FROM grocery_items WHERE owner = ? ORDER BY created_at, rowid`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list grocery items")
	}
	defer rows.Close()

	var items []model.GroceryItem
	for rows.Next() {
		var it model.GroceryItem
		if err := rows.Scan(&it.ID, &it.Owner, &it.Name, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan grocery item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list grocery items iterate")
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, owner, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM grocery_items WHERE owner = ? AND id = ?`,
		owner, itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete grocery item %s", itemID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("grocery item not found: %s", itemID)
	}
	return nil
}

func (s *SQLiteStore) InsertSelection(ctx context.Context, sel *model.SelectionRequest) error {
	idsJSON, err := json.Marshal(sel.PlatformIDs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal platform ids")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO platform_selections (id, owner, pincode, platform_ids, created_at) VALUES (?, ?, ?, ?, ?)`,
		sel.ID, sel.Owner, sel.Pincode, string(idsJSON), sel.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert selection")
}

func (s *SQLiteStore) DeleteResults(ctx context.Context, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scraped_results WHERE owner = ?`, owner)
	return eris.Wrap(err, "sqlite: delete results")
}

// InsertResults writes a batch of records in one transaction so a reader
// never observes a partially written batch.
func (s *SQLiteStore) InsertResults(ctx context.Context, owner string, records []model.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert results")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scraped_results
		 (id, owner, platform_id, grocery_item, product_name, price, unit_size, special_offer, is_available, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert results")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		scrapedAt := rec.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			id, owner, rec.PlatformID, rec.GroceryItem, rec.ProductName,
			rec.Price, rec.UnitSize, rec.SpecialOffer, rec.IsAvailable, scrapedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert result for %s", rec.GroceryItem)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert results")
}

// ListResults returns the owner's records ordered by price ascending with
// rowid breaking ties, which preserves insert order for equal prices.
func (s *SQLiteStore) ListResults(ctx context.Context, owner string) ([]model.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, platform_id, grocery_item, product_name, price, unit_size, special_offer, is_available, scraped_at
		 FROM scraped_results WHERE owner = ? ORDER BY price ASC, rowid ASC`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var records []model.ProductRecord
	for rows.Next() {
		var rec model.ProductRecord
		if err := rows.Scan(
			&rec.ID, &rec.Owner, &rec.PlatformID, &rec.GroceryItem, &rec.ProductName,
			&rec.Price, &rec.UnitSize, &rec.SpecialOffer, &rec.IsAvailable, &rec.ScrapedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}
