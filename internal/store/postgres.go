package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/db"
	"github.com/sells-group/leadflow/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	if minConns <= 0 {
		minConns = 2
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS properties (
	id              TEXT PRIMARY KEY,
	fingerprint     TEXT NOT NULL UNIQUE,
	address         TEXT NOT NULL,
	city            TEXT NOT NULL,
	state           TEXT NOT NULL,
	zip_code        TEXT NOT NULL DEFAULT '',
	bedrooms        INT,
	bathrooms       INT,
	square_feet     INT,
	year_built      INT,
	estimated_value DOUBLE PRECISION,
	max_offer       DOUBLE PRECISION,
	owner_name      TEXT NOT NULL DEFAULT '',
	owner_mailing   TEXT NOT NULL DEFAULT '',
	equity_percent  DOUBLE PRECISION,
	lead_type       TEXT NOT NULL DEFAULT 'standard',
	distress        TEXT NOT NULL DEFAULT 'none',
	confidence      INT NOT NULL DEFAULT 0,
	vendor_id       TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS owners (
	id          TEXT PRIMARY KEY,
	owner_key   TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	mailing     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL REFERENCES properties(fingerprint),
	phone       TEXT NOT NULL DEFAULT '',
	phone_type  TEXT NOT NULL DEFAULT 'unknown',
	dnc         BOOLEAN NOT NULL DEFAULT FALSE,
	email       TEXT NOT NULL DEFAULT '',
	best        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lead_deliveries (
	user_id      TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	delivered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS skip_cursors (
	user_id      TEXT NOT NULL,
	criteria_key TEXT NOT NULL,
	position     BIGINT NOT NULL DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, criteria_key)
);

CREATE TABLE IF NOT EXISTS acquisitions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	criteria_key  TEXT NOT NULL,
	requested     INT NOT NULL,
	delivered     INT NOT NULL,
	total_checked INT NOT NULL,
	filtered      INT NOT NULL,
	duration_ms   BIGINT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_fingerprint ON contacts(fingerprint);
CREATE INDEX IF NOT EXISTS idx_deliveries_user ON lead_deliveries(user_id);
CREATE INDEX IF NOT EXISTS idx_acquisitions_user ON acquisitions(user_id);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

var propertyColumns = []string{
	"id", "fingerprint", "address", "city", "state", "zip_code",
	"bedrooms", "bathrooms", "square_feet", "year_built",
	"estimated_value", "max_offer", "owner_name", "owner_mailing",
	"equity_percent", "lead_type", "distress", "confidence", "vendor_id",
}

var insertPropertySQL = db.UpsertSQL("properties", propertyColumns, []string{"fingerprint"}, nil)

func (s *PostgresStore) InsertPropertyIfAbsent(ctx context.Context, fingerprint string, p model.CanonicalProperty) (bool, error) {
	tag, err := s.pool.Exec(ctx, insertPropertySQL,
		uuid.NewString(), fingerprint, p.Address, p.City, p.State, p.ZipCode,
		p.Bedrooms, p.Bathrooms, p.SquareFeet, p.YearBuilt,
		p.EstimatedValue, p.MaxOffer, p.OwnerName, p.OwnerMailingAddress,
		p.EquityPercent, string(p.LeadType), string(p.Distress), p.ConfidenceScore, p.VendorRecordID,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert property")
	}
	return tag.RowsAffected() > 0, nil
}

var insertOwnerSQL = db.UpsertSQL("owners", []string{"id", "owner_key", "name", "mailing"}, []string{"owner_key"}, nil)

func (s *PostgresStore) InsertOwnerIfAbsent(ctx context.Context, o model.Owner) (bool, error) {
	tag, err := s.pool.Exec(ctx, insertOwnerSQL, uuid.NewString(), ownerKey(o), o.Name, o.MailingAddress)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert owner")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) InsertContact(ctx context.Context, fingerprint string, c model.Contact) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (id, fingerprint, phone, phone_type, dnc, email, best)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), fingerprint, c.Phone, string(c.PhoneType), c.DNC, c.Email, c.Best,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert contact")
	}
	return nil
}

var insertDeliverySQL = db.UpsertSQL("lead_deliveries", []string{"user_id", "fingerprint"}, []string{"user_id", "fingerprint"}, nil)

func (s *PostgresStore) InsertLeadDelivery(ctx context.Context, userID, fingerprint string) error {
	if _, err := s.pool.Exec(ctx, insertDeliverySQL, userID, fingerprint); err != nil {
		return eris.Wrap(err, "postgres: insert delivery")
	}
	return nil
}

func (s *PostgresStore) IsDelivered(ctx context.Context, userID, fingerprint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM lead_deliveries WHERE user_id = $1 AND fingerprint = $2)`,
		userID, fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: check delivery")
	}
	return exists, nil
}

func (s *PostgresStore) ListDeliveredFingerprints(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fingerprint FROM lead_deliveries WHERE user_id = $1`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list deliveries")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan delivery")
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ResetDeliveries(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lead_deliveries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: reset deliveries")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) GetSkipCursor(ctx context.Context, userID, criteriaKey string) (int, error) {
	var pos int
	err := s.pool.QueryRow(ctx,
		`SELECT position FROM skip_cursors WHERE user_id = $1 AND criteria_key = $2`,
		userID, criteriaKey,
	).Scan(&pos)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrap(err, "postgres: get cursor")
	}
	return pos, nil
}

// AdvanceSkipCursor adds by to the cursor in one atomic upsert. Concurrent
// calls for the same (user, criteria) serialize on the row, so two in-flight
// acquisitions cannot both advance from the same base.
func (s *PostgresStore) AdvanceSkipCursor(ctx context.Context, userID, criteriaKey string, by int) error {
	if by < 0 {
		return eris.Errorf("postgres: cursor cannot move backward (by=%d)", by)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO skip_cursors (user_id, criteria_key, position, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, criteria_key)
		 DO UPDATE SET position = skip_cursors.position + EXCLUDED.position, updated_at = now()`,
		userID, criteriaKey, by,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: advance cursor")
	}
	return nil
}

func (s *PostgresStore) ResetSkipCursor(ctx context.Context, userID, criteriaKey string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM skip_cursors WHERE user_id = $1 AND criteria_key = $2`,
		userID, criteriaKey,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: reset cursor")
	}
	return nil
}

func (s *PostgresStore) ListSkipCursors(ctx context.Context, userID string) ([]model.SkipCursor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, criteria_key, position, updated_at FROM skip_cursors WHERE user_id = $1 ORDER BY criteria_key`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cursors")
	}
	defer rows.Close()

	var out []model.SkipCursor
	for rows.Next() {
		var c model.SkipCursor
		if err := rows.Scan(&c.UserID, &c.CriteriaKey, &c.Position, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cursor")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RecordAcquisition(ctx context.Context, a model.Acquisition) error {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO acquisitions (id, user_id, criteria_key, requested, delivered, total_checked, filtered, duration_ms, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, a.UserID, a.CriteriaKey, a.Requested, a.Delivered, a.TotalChecked, a.Filtered, a.DurationMS, string(a.Status),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: record acquisition")
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
