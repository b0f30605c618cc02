package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsertSQL_DoNothing(t *testing.T) {
	t.Parallel()

	sql := UpsertSQL("lead_deliveries",
		[]string{"user_id", "fingerprint", "delivered_at"},
		[]string{"user_id", "fingerprint"},
		nil,
	)

	assert.Equal(t,
		`INSERT INTO "lead_deliveries" ("user_id", "fingerprint", "delivered_at") VALUES ($1, $2, $3) ON CONFLICT ("user_id", "fingerprint") DO NOTHING`,
		sql,
	)
}

func TestUpsertSQL_DoUpdate(t *testing.T) {
	t.Parallel()

	sql := UpsertSQL("skip_cursors",
		[]string{"user_id", "criteria_key", "position"},
		[]string{"user_id", "criteria_key"},
		[]string{"position"},
	)

	assert.Contains(t, sql, `ON CONFLICT ("user_id", "criteria_key") DO UPDATE SET "position" = EXCLUDED."position"`)
}

func TestUpsertSQL_SchemaQualified(t *testing.T) {
	t.Parallel()

	sql := UpsertSQL("crm.properties", []string{"fingerprint"}, []string{"fingerprint"}, nil)
	assert.Contains(t, sql, `INSERT INTO "crm"."properties"`)
}
