package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadflow/internal/model"
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
CREATE TABLE IF NOT EXISTS properties (
	id              TEXT PRIMARY KEY,
	fingerprint     TEXT NOT NULL UNIQUE,
	address         TEXT NOT NULL,
	city            TEXT NOT NULL,
	state           TEXT NOT NULL,
	zip_code        TEXT NOT NULL DEFAULT '',
	bedrooms        INTEGER,
	bathrooms       INTEGER,
	square_feet     INTEGER,
	year_built      INTEGER,
	estimated_value REAL,
	max_offer       REAL,
	owner_name      TEXT NOT NULL DEFAULT '',
	owner_mailing   TEXT NOT NULL DEFAULT '',
	equity_percent  REAL,
	lead_type       TEXT NOT NULL DEFAULT 'standard',
	distress        TEXT NOT NULL DEFAULT 'none',
	confidence      INTEGER NOT NULL DEFAULT 0,
	vendor_id       TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS owners (
	id         TEXT PRIMARY KEY,
	owner_key  TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	mailing    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL REFERENCES properties(fingerprint),
	phone       TEXT NOT NULL DEFAULT '',
	phone_type  TEXT NOT NULL DEFAULT 'unknown',
	dnc         INTEGER NOT NULL DEFAULT 0,
	email       TEXT NOT NULL DEFAULT '',
	best        INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lead_deliveries (
	user_id      TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	delivered_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (user_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS skip_cursors (
	user_id      TEXT NOT NULL,
	criteria_key TEXT NOT NULL,
	position     INTEGER NOT NULL DEFAULT 0,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (user_id, criteria_key)
);

CREATE TABLE IF NOT EXISTS acquisitions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	criteria_key  TEXT NOT NULL,
	requested     INTEGER NOT NULL,
	delivered     INTEGER NOT NULL,
	total_checked INTEGER NOT NULL,
	filtered      INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	status        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contacts_fingerprint ON contacts(fingerprint);
CREATE INDEX IF NOT EXISTS idx_deliveries_user ON lead_deliveries(user_id);
CREATE INDEX IF NOT EXISTS idx_acquisitions_user ON acquisitions(user_id);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) InsertPropertyIfAbsent(ctx context.Context, fingerprint string, p model.CanonicalProperty) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (id, fingerprint, address, city, state, zip_code,
			bedrooms, bathrooms, square_feet, year_built,
			estimated_value, max_offer, owner_name, owner_mailing,
			equity_percent, lead_type, distress, confidence, vendor_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		uuid.NewString(), fingerprint, p.Address, p.City, p.State, p.ZipCode,
		p.Bedrooms, p.Bathrooms, p.SquareFeet, p.YearBuilt,
		p.EstimatedValue, p.MaxOffer, p.OwnerName, p.OwnerMailingAddress,
		p.EquityPercent, string(p.LeadType), string(p.Distress), p.ConfidenceScore, p.VendorRecordID,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert property")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert property rows")
	}
	return n > 0, nil
}

func (s *SQLiteStore) InsertOwnerIfAbsent(ctx context.Context, o model.Owner) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO owners (id, owner_key, name, mailing) VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner_key) DO NOTHING`,
		uuid.NewString(), ownerKey(o), o.Name, o.MailingAddress,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert owner")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert owner rows")
	}
	return n > 0, nil
}

func (s *SQLiteStore) InsertContact(ctx context.Context, fingerprint string, c model.Contact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, fingerprint, phone, phone_type, dnc, email, best)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), fingerprint, c.Phone, string(c.PhoneType), c.DNC, c.Email, c.Best,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert contact")
	}
	return nil
}

func (s *SQLiteStore) InsertLeadDelivery(ctx context.Context, userID, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_deliveries (user_id, fingerprint) VALUES (?, ?)
		 ON CONFLICT (user_id, fingerprint) DO NOTHING`,
		userID, fingerprint,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert delivery")
	}
	return nil
}

func (s *SQLiteStore) IsDelivered(ctx context.Context, userID, fingerprint string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM lead_deliveries WHERE user_id = ? AND fingerprint = ?`,
		userID, fingerprint,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: check delivery")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListDeliveredFingerprints(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint FROM lead_deliveries WHERE user_id = ?`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list deliveries")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan delivery")
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ResetDeliveries(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lead_deliveries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: reset deliveries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: reset deliveries rows")
	}
	return n, nil
}

func (s *SQLiteStore) GetSkipCursor(ctx context.Context, userID, criteriaKey string) (int, error) {
	var pos int
	err := s.db.QueryRowContext(ctx,
		`SELECT position FROM skip_cursors WHERE user_id = ? AND criteria_key = ?`,
		userID, criteriaKey,
	).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: get cursor")
	}
	return pos, nil
}

func (s *SQLiteStore) AdvanceSkipCursor(ctx context.Context, userID, criteriaKey string, by int) error {
	if by < 0 {
		return eris.Errorf("sqlite: cursor cannot move backward (by=%d)", by)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skip_cursors (user_id, criteria_key, position, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT (user_id, criteria_key)
		 DO UPDATE SET position = position + excluded.position, updated_at = datetime('now')`,
		userID, criteriaKey, by,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: advance cursor")
	}
	return nil
}

func (s *SQLiteStore) ResetSkipCursor(ctx context.Context, userID, criteriaKey string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM skip_cursors WHERE user_id = ? AND criteria_key = ?`,
		userID, criteriaKey,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: reset cursor")
	}
	return nil
}

func (s *SQLiteStore) ListSkipCursors(ctx context.Context, userID string) ([]model.SkipCursor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, criteria_key, position, updated_at FROM skip_cursors WHERE user_id = ? ORDER BY criteria_key`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cursors")
	}
	defer rows.Close()

	var out []model.SkipCursor
	for rows.Next() {
		var c model.SkipCursor
		var updated string
		if err := rows.Scan(&c.UserID, &c.CriteriaKey, &c.Position, &updated); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cursor")
		}
		// SQLite stores datetime('now') as text.
		if ts, err := time.Parse("2006-01-02 15:04:05", updated); err == nil {
			c.UpdatedAt = ts
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordAcquisition(ctx context.Context, a model.Acquisition) error {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO acquisitions (id, user_id, criteria_key, requested, delivered, total_checked, filtered, duration_ms, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.UserID, a.CriteriaKey, a.Requested, a.Delivered, a.TotalChecked, a.Filtered, a.DurationMS, string(a.Status),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: record acquisition")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
