package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/basketwise/compare-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by pgxmock
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS grocery_items (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS platform_selections (
	id           TEXT PRIMARY KEY,
	owner        TEXT NOT NULL,
	pincode      TEXT NOT NULL,
	platform_ids TEXT[] NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scraped_results (
	id            TEXT PRIMARY KEY,
	seq           BIGINT GENERATED ALWAYS AS IDENTITY,
	owner         TEXT NOT NULL,
	platform_id   TEXT NOT NULL,
	grocery_item  TEXT NOT NULL,
	product_name  TEXT NOT NULL,
	price         DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	unit_size     TEXT NOT NULL DEFAULT '',
	special_offer TEXT NOT NULL DEFAULT '',
	is_available  BOOLEAN NOT NULL DEFAULT TRUE,
	scraped_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_grocery_items_owner ON grocery_items(owner);
CREATE INDEX IF NOT EXISTS idx_platform_selections_owner ON platform_selections(owner);
CREATE INDEX IF NOT EXISTS idx_scraped_results_owner_price ON scraped_results(owner, price);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AddItem(ctx context.Context, owner, name string) (*model.GroceryItem, error) {
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO grocery_items (id, owner, name, created_at) VALUES ($1, $2, $3, $4)`,
		item.ID, item.Owner, item.Name, item.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert grocery item")
	}
	return item, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, owner string) ([]model.GroceryItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner, name, created_at FROM grocery_items WHERE owner = $1 ORDER BY created_at, id`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list grocery items")
	}
	defer rows.Close()

	var items []model.GroceryItem
	for rows.Next() {
		var it model.GroceryItem
		if err := rows.Scan(&it.ID, &it.Owner, &it.Name, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan grocery item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list grocery items iterate")
}

func (s *PostgresStore) DeleteItem(ctx context.Context, owner, itemID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM grocery_items WHERE owner = $1 AND id = $2`,
		owner, itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete grocery item %s", itemID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("grocery item not found: %s", itemID)
	}
	return nil
}

func (s *PostgresStore) InsertSelection(ctx context.Context, sel *model.SelectionRequest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO platform_selections (id, owner, pincode, platform_ids, created_at) VALUES ($1, $2, $3, $4, $5)`,
		sel.ID, sel.Owner, sel.Pincode, sel.PlatformIDs, sel.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert selection")
}

func (s *PostgresStore) DeleteResults(ctx context.Context, owner string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM scraped_results WHERE owner = $1`, owner)
	return eris.Wrap(err, "postgres: delete results")
}

func (s *PostgresStore) InsertResults(ctx context.Context, owner string, records []model.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin insert results")
	}
	defer tx.Rollback(ctx)

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
		if _, err := tx.Exec(ctx,
			`INSERT INTO scraped_results
			 (id, owner, platform_id, grocery_item, product_name, price, unit_size, special_offer, is_available, scraped_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, owner, rec.PlatformID, rec.GroceryItem, rec.ProductName,
			rec.Price, rec.UnitSize, rec.SpecialOffer, rec.IsAvailable, scrapedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert result for %s", rec.GroceryItem)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit insert results")
}

func (s *PostgresStore) ListResults(ctx context.Context, owner string) ([]model.ProductRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner, platform_id, grocery_item, product_name, price, unit_size, special_offer, is_available, scraped_at
		 FROM scraped_results WHERE owner = $1 ORDER BY price ASC, seq ASC`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var records []model.ProductRecord
	for rows.Next() {
		var rec model.ProductRecord
		if err := rows.Scan(
			&rec.ID, &rec.Owner, &rec.PlatformID, &rec.GroceryItem, &rec.ProductName,
			&rec.Price, &rec.UnitSize, &rec.SpecialOffer, &rec.IsAvailable, &rec.ScrapedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list results iterate")
}
