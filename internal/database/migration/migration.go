package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the first table step; its presence means the
// schema is in place.
const sentinelTable = "public.applications"

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_applications",
		SQL: `CREATE TABLE IF NOT EXISTS applications (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id         TEXT        NOT NULL,
  status           TEXT        NOT NULL CHECK (status IN ('draft','submitted','pending_procurement','pending_legal','more_info_required','approved','rejected')),
  current_step     INTEGER     NOT NULL DEFAULT 0 CHECK (current_step >= 0),
  fields           JSONB       NOT NULL DEFAULT '{}'::jsonb,
  files            JSONB       NOT NULL DEFAULT '{}'::jsonb,
  file_lists       JSONB       NOT NULL DEFAULT '{}'::jsonb,
  vendor_number    TEXT        UNIQUE,
  rejection_reason TEXT,
  version          INTEGER     NOT NULL DEFAULT 1,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (vendor_number IS NULL OR status = 'approved')
);`,
	},
	{
		Name: "create_index_applications_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_applications_owner_id ON applications (owner_id);`,
	},
	{
		Name: "create_index_applications_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_applications_status ON applications (status);`,
	},
	{
		Name: "create_table_status_history",
		SQL: `CREATE TABLE IF NOT EXISTS status_history (
  id           BIGSERIAL   PRIMARY KEY,
  subject_type TEXT        NOT NULL CHECK (subject_type IN ('application','contract')),
  subject_id   UUID        NOT NULL,
  action       TEXT        NOT NULL,
  actor_id     TEXT        NOT NULL,
  actor_role   TEXT        NOT NULL,
  from_status  TEXT        NOT NULL,
  to_status    TEXT        NOT NULL,
  comments     TEXT        NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_status_history_subject",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_status_history_subject ON status_history (subject_type, subject_id, id);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  application_id UUID        NOT NULL REFERENCES applications (id),
  original_name  TEXT        NOT NULL,
  document_type  TEXT        NOT NULL,
  storage_path   TEXT        NOT NULL UNIQUE,
  size           BIGINT      NOT NULL CHECK (size >= 0),
  content_type   TEXT        NOT NULL,
  uploaded_by    TEXT        NOT NULL,
  uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_application_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_application_id ON documents (application_id);`,
	},
	{
		Name: "create_table_contracts",
		SQL: `CREATE TABLE IF NOT EXISTS contracts (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  application_id UUID        NOT NULL REFERENCES applications (id),
  title          TEXT        NOT NULL,
  starts_at      TIMESTAMPTZ NOT NULL,
  ends_at        TIMESTAMPTZ NOT NULL,
  status         TEXT        NOT NULL CHECK (status IN ('draft','active','expired','terminated','renewed')),
  version        INTEGER     NOT NULL DEFAULT 1,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (ends_at > starts_at)
);`,
	},
	{
		Name: "create_index_contracts_application_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_contracts_application_id ON contracts (application_id);`,
	},
}

// EnsureMigrated runs every step when the sentinel table is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log logrus.FieldLogger, dbHost string) error {
	start := time.Now()
	base := log.WithFields(logrus.Fields{"component": "database", "db_host": dbHost})

	base.WithFields(logrus.Fields{"event": "db_migration_check", "status": "starting"}).Info("checking schema")

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists)
	if err != nil {
		base.WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"status":      "error",
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		base.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"status":      "success",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	base.WithFields(logrus.Fields{"event": "db_migration_start", "status": "in_progress"}).Info("applying schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			base.WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).WithError(err).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		base.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Debug("migration step applied")
	}

	base.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"status":      "success",
		"steps":       len(steps),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema migrated")
	return nil
}
