// Package sqlite implements the storage interface on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sellside/matchbox/internal/normalize"
	"github.com/sellside/matchbox/internal/storage"
	"github.com/sellside/matchbox/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// Compile-time check that SQLiteStorage implements Storage
var _ storage.Storage = (*SQLiteStorage)(nil)

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode for better concurrency between a detection pass and imports
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS deals (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	customer_name      TEXT NOT NULL DEFAULT '',
	customer_name_norm TEXT NOT NULL DEFAULT '',
	value              REAL,
	currency           TEXT NOT NULL DEFAULT '',
	close_date         TEXT,
	registered_at      TEXT,
	vendor_id          TEXT NOT NULL DEFAULT '',
	vendor_name        TEXT NOT NULL DEFAULT '',
	products           TEXT NOT NULL DEFAULT '[]',
	contacts           TEXT NOT NULL DEFAULT '[]',
	description        TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'open',
	metadata           TEXT NOT NULL DEFAULT '{}',
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_vendor_id ON deals(vendor_id);
CREATE INDEX IF NOT EXISTS idx_deals_customer_name_norm ON deals(customer_name_norm);
CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at);

CREATE TABLE IF NOT EXISTS match_records (
	entity_type      TEXT NOT NULL,
	entity_id_1      TEXT NOT NULL,
	entity_id_2      TEXT NOT NULL,
	similarity_score REAL NOT NULL,
	confidence       REAL NOT NULL,
	strategy         TEXT NOT NULL,
	factors          TEXT NOT NULL DEFAULT '{}',
	status           TEXT NOT NULL DEFAULT 'pending',
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	PRIMARY KEY (entity_type, entity_id_1, entity_id_2)
);
`

// CreateDeal inserts a deal, assigning a fresh id when the record does not
// carry one yet.
func (s *SQLiteStorage) CreateDeal(ctx context.Context, deal *types.Deal) error {
	if deal == nil {
		return fmt.Errorf("deal cannot be nil")
	}
	if err := deal.Validate(); err != nil {
		return fmt.Errorf("invalid deal: %w", err)
	}
	if deal.ID == "" {
		deal.ID = uuid.New().String()
	}
	if deal.Status == "" {
		deal.Status = types.DealStatusOpen
	}
	now := time.Now().UTC()
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = now
	}
	deal.UpdatedAt = now

	products, err := json.Marshal(deal.Products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}
	contacts, err := json.Marshal(deal.Contacts)
	if err != nil {
		return fmt.Errorf("failed to marshal contacts: %w", err)
	}
	metadata, err := json.Marshal(deal.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deals (id, name, customer_name, customer_name_norm, value, currency,
			close_date, registered_at, vendor_id, vendor_name, products, contacts,
			description, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deal.ID, deal.Name, deal.CustomerName, normalize.CompanyName(deal.CustomerName),
		nullFloat(deal.Value), deal.Currency, nullTime(deal.CloseDate), nullTime(deal.RegisteredAt),
		deal.VendorID, deal.VendorName, string(products), string(contacts),
		deal.Description, string(deal.Status), string(metadata),
		deal.CreatedAt.Format(time.RFC3339Nano), deal.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deal: %w", err)
	}
	return nil
}

// GetDeal fetches one deal by id
func (s *SQLiteStorage) GetDeal(ctx context.Context, id string) (*types.Deal, error) {
	row := s.db.QueryRowContext(ctx, dealSelect+` WHERE id = ?`, id)
	deal, err := scanDeal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deal not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return deal, nil
}

// ListDeals returns the full pool, newest first
func (s *SQLiteStorage) ListDeals(ctx context.Context) ([]*types.Deal, error) {
	rows, err := s.db.QueryContext(ctx, dealSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()
	return collectDeals(rows)
}

// FindCandidates returns a bounded candidate pool for one deal: rows whose
// normalized customer name shares the deal's leading customer token OR that
// share its vendor id, newest first, excluding rejected records and the deal
// itself.
func (s *SQLiteStorage) FindCandidates(ctx context.Context, deal *types.Deal, limit int) ([]*types.Deal, error) {
	if deal == nil {
		return nil, fmt.Errorf("deal cannot be nil")
	}
	if limit <= 0 {
		limit = 50
	}

	// Leading token of the normalized customer name; broad enough to catch
	// respellings of the rest of the name, narrow enough to stay indexed.
	token := ""
	if tokens := normalize.Tokens(normalize.CompanyName(deal.CustomerName)); len(tokens) > 0 {
		token = tokens[0]
	}

	rows, err := s.db.QueryContext(ctx, dealSelect+`
		WHERE id != ?
		  AND status != ?
		  AND (
			(? != '' AND instr(customer_name_norm, ?) > 0)
			OR (? != '' AND vendor_id = ?)
		  )
		ORDER BY created_at DESC
		LIMIT ?`,
		deal.ID, string(types.DealStatusRejected),
		token, token,
		deal.VendorID, deal.VendorID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()
	return collectDeals(rows)
}

// UpsertMatchRecord writes a pairwise match record, updating the existing
// row when the pair was already recorded. The review status of an existing
// row is preserved so a re-run does not reopen dismissed matches.
func (s *SQLiteStorage) UpsertMatchRecord(ctx context.Context, record *types.MatchRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if record.EntityID1 == "" || record.EntityID2 == "" {
		return fmt.Errorf("both entity ids are required")
	}
	if record.Status == "" {
		record.Status = types.MatchPending
	}
	factors, err := json.Marshal(record.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_records (entity_type, entity_id_1, entity_id_2,
			similarity_score, confidence, strategy, factors, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id_1, entity_id_2) DO UPDATE SET
			similarity_score = excluded.similarity_score,
			confidence = excluded.confidence,
			strategy = excluded.strategy,
			factors = excluded.factors,
			updated_at = excluded.updated_at`,
		string(record.EntityType), record.EntityID1, record.EntityID2,
		record.SimilarityScore, record.Confidence, string(record.Strategy),
		string(factors), string(record.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match record: %w", err)
	}
	return nil
}

// GetMatchRecords returns every match record referencing the given deal
func (s *SQLiteStorage) GetMatchRecords(ctx context.Context, dealID string) ([]*types.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_type, entity_id_1, entity_id_2, similarity_score,
			confidence, strategy, factors, status, created_at, updated_at
		FROM match_records
		WHERE entity_id_1 = ? OR entity_id_2 = ?
		ORDER BY confidence DESC`,
		dealID, dealID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query match records: %w", err)
	}
	defer rows.Close()

	var records []*types.MatchRecord
	for rows.Next() {
		var r types.MatchRecord
		var entityType, strategy, status, factors, createdAt, updatedAt string
		if err := rows.Scan(&entityType, &r.EntityID1, &r.EntityID2, &r.SimilarityScore,
			&r.Confidence, &strategy, &factors, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		r.EntityType = types.EntityType(entityType)
		r.Strategy = types.MatchStrategy(strategy)
		r.Status = types.MatchRecordStatus(status)
		if err := json.Unmarshal([]byte(factors), &r.Factors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal factors: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const dealSelect = `
	SELECT id, name, customer_name, value, currency, close_date, registered_at,
		vendor_id, vendor_name, products, contacts, description, status,
		metadata, created_at, updated_at
	FROM deals`

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeal(row rowScanner) (*types.Deal, error) {
	var d types.Deal
	var value sql.NullFloat64
	var closeDate, registeredAt sql.NullString
	var products, contacts, metadata, status, createdAt, updatedAt string

	if err := row.Scan(&d.ID, &d.Name, &d.CustomerName, &value, &d.Currency,
		&closeDate, &registeredAt, &d.VendorID, &d.VendorName,
		&products, &contacts, &d.Description, &status, &metadata,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if value.Valid {
		v := value.Float64
		d.Value = &v
	}
	var err error
	if d.CloseDate, err = parseNullTime(closeDate); err != nil {
		return nil, fmt.Errorf("failed to parse close_date: %w", err)
	}
	if d.RegisteredAt, err = parseNullTime(registeredAt); err != nil {
		return nil, fmt.Errorf("failed to parse registered_at: %w", err)
	}
	if err := json.Unmarshal([]byte(products), &d.Products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}
	if err := json.Unmarshal([]byte(contacts), &d.Contacts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contacts: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &d.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	d.Status = types.DealStatus(status)
	if d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &d, nil
}

func collectDeals(rows *sql.Rows) ([]*types.Deal, error) {
	var deals []*types.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
