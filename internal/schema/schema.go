// Package schema creates and upgrades the database schema on startup.
//
// Ensure is idempotent and forward-only: tables are created with the full
// desired column set, columns missing from an existing table are added with
// row-compatible defaults, and indexes are created best-effort. Columns are
// never dropped or renamed; a renamed concept becomes a new column and the
// legacy column is simply ignored. Duplicate-object errors are treated as
// success so that several workers may run Ensure concurrently at boot.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Execer is the minimal database surface Ensure needs. It is implemented by
// *pgxpool.Pool and pgxmock.PgxPoolIface.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// column is one desired column: the definition string is valid both inside
// CREATE TABLE and after ALTER TABLE ... ADD COLUMN, so additions never need
// a second definition. Defaults are chosen to be valid against existing rows.
type column struct {
	name string
	def  string
}

// table is one desired table. Constraints only apply at creation time;
// founding columns they reference are never added after the fact.
type table struct {
	name        string
	columns     []column
	constraints []string
}

// index is one desired secondary index. Creation failures are non-fatal.
type index struct {
	name string
	sql  string
}

// tables lists the desired schema in application order.
var tables = []table{
	{
		name: "tenants",
		columns: []column{
			{"id", "uuid PRIMARY KEY"},
			{"slug", "text NOT NULL UNIQUE"},
			{"name", "text NOT NULL DEFAULT ''"},
			{"created_at", "timestamptz NOT NULL DEFAULT now()"},
		},
	},
	{
		name: "users",
		columns: []column{
			{"id", "uuid PRIMARY KEY"},
			{"tenant_id", "uuid"},
			{"email", "text NOT NULL DEFAULT ''"},
			{"pwd_hash", "bytea"},
			{"salt_auth", "bytea"},
			{"external_subject", "text NOT NULL DEFAULT ''"},
			{"role", "text NOT NULL DEFAULT 'user'"},
			{"created_at", "timestamptz NOT NULL DEFAULT now()"},
		},
		constraints: []string{"UNIQUE (tenant_id, email)"},
	},
	{
		name: "milk_records",
		columns: []column{
			{"id", "bigserial PRIMARY KEY"},
			{"owner_id", "uuid"},
			{"cow_tag", "text NOT NULL DEFAULT ''"},
			{"litres", "double precision NOT NULL DEFAULT 0"},
			{"record_date", "date NOT NULL DEFAULT CURRENT_DATE"},
			{"session", "text NOT NULL DEFAULT 'AM'"},
			{"note", "text NOT NULL DEFAULT ''"},
			{"tags", "text NOT NULL DEFAULT ''"},
			{"price_per_litre", "double precision"},
			{"deleted", "boolean NOT NULL DEFAULT false"},
			{"created_at", "timestamptz NOT NULL DEFAULT now()"},
			{"updated_at", "timestamptz NOT NULL DEFAULT now()"},
		},
		constraints: []string{"CHECK (litres >= 0)"},
	},
	{
		name: "cows",
		columns: []column{
			{"id", "bigserial PRIMARY KEY"},
			{"owner_id", "uuid"},
			{"tag", "text NOT NULL DEFAULT ''"},
			{"name", "text NOT NULL DEFAULT ''"},
			{"breed", "text NOT NULL DEFAULT ''"},
			{"parity", "integer"},
			{"dob", "date"},
			{"latest_calving", "date"},
			{"group_name", "text NOT NULL DEFAULT ''"},
			{"created_at", "timestamptz NOT NULL DEFAULT now()"},
		},
		constraints: []string{"UNIQUE (owner_id, tag)"},
	},
	{
		name: "health_events",
		columns: []column{
			{"id", "bigserial PRIMARY KEY"},
			{"owner_id", "uuid"},
			{"cow_tag", "text NOT NULL DEFAULT ''"},
			{"event_date", "date NOT NULL DEFAULT CURRENT_DATE"},
			{"event_type", "text NOT NULL DEFAULT ''"},
			{"withdrawal_until", "date"},
			{"details", "text NOT NULL DEFAULT ''"},
			{"created_at", "timestamptz NOT NULL DEFAULT now()"},
		},
	},
	{
		name: "breeding_events",
		columns: []column{
			{"id", "bigserial PRIMARY KEY"},
			{"owner_id", "uuid"},
			{"cow_tag", "text NOT NULL DEFAULT ''"},
			{"event_date", "date NOT NULL DEFAULT CURRENT_DATE"},
			{"event_type", "text NOT NULL DEFAULT ''"},
			{"sire", "text NOT NULL DEFAULT ''"},
			{"protocol", "text NOT NULL DEFAULT ''"},
			{"details", "text NOT NULL DEFAULT ''"},
			{"created_at", "timestamptz NOT NULL DEFAULT now()"},
		},
	},
	{
		name: "auth_limiter",
		columns: []column{
			{"username", "text NOT NULL DEFAULT ''"},
			{"ip_hash", "bytea NOT NULL DEFAULT ''"},
			{"fail_count", "integer NOT NULL DEFAULT 0"},
			{"blocked_until", "timestamptz NOT NULL DEFAULT 'epoch'"},
			{"updated_at", "timestamptz NOT NULL DEFAULT now()"},
		},
		constraints: []string{"PRIMARY KEY (username, ip_hash)"},
	},
}

// indexes lists secondary indexes on lookup columns.
var indexes = []index{
	{"idx_users_tenant", `CREATE INDEX IF NOT EXISTS idx_users_tenant ON users (tenant_id)`},
	{"idx_milk_records_owner_date", `CREATE INDEX IF NOT EXISTS idx_milk_records_owner_date ON milk_records (owner_id, record_date)`},
	{"idx_milk_records_owner_cow", `CREATE INDEX IF NOT EXISTS idx_milk_records_owner_cow ON milk_records (owner_id, cow_tag)`},
	{"idx_cows_owner", `CREATE INDEX IF NOT EXISTS idx_cows_owner ON cows (owner_id)`},
	{"idx_health_events_owner_date", `CREATE INDEX IF NOT EXISTS idx_health_events_owner_date ON health_events (owner_id, event_date)`},
	{"idx_breeding_events_owner_date", `CREATE INDEX IF NOT EXISTS idx_breeding_events_owner_date ON breeding_events (owner_id, event_date)`},
}

const columnsQuery = `
SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`

// Ensure brings the database schema up to the desired state. After a nil
// return all required tables and columns exist. Table-level failures are
// fatal; index creation failures are logged and skipped.
func Ensure(ctx context.Context, db Execer, log *zap.Logger) error {
	for _, t := range tables {
		if _, err := db.Exec(ctx, createSQL(t)); err != nil && !isDuplicate(err) {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
		existing, err := tableColumns(ctx, db, t.name)
		if err != nil {
			return fmt.Errorf("introspect %s: %w", t.name, err)
		}
		for _, c := range t.columns {
			if existing[c.name] {
				continue
			}
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t.name, c.name, c.def)
			if _, err := db.Exec(ctx, alter); err != nil && !isDuplicate(err) {
				return fmt.Errorf("add column %s.%s: %w", t.name, c.name, err)
			}
			log.Info("schema: added column",
				zap.String("table", t.name),
				zap.String("column", c.name),
			)
		}
	}

	for _, ix := range indexes {
		if _, err := db.Exec(ctx, ix.sql); err != nil && !isDuplicate(err) {
			log.Warn("schema: index creation skipped",
				zap.String("index", ix.name),
				zap.Error(err),
			)
		}
	}
	return nil
}

// createSQL renders CREATE TABLE IF NOT EXISTS with the full desired column
// set, so fresh databases need no ALTERs at all.
func createSQL(t table) string {
	defs := make([]string, 0, len(t.columns)+len(t.constraints))
	for _, c := range t.columns {
		defs = append(defs, c.name+" "+c.def)
	}
	defs = append(defs, t.constraints...)

	out := "CREATE TABLE IF NOT EXISTS " + t.name + " (\n"
	for i, d := range defs {
		out += "\t" + d
		if i < len(defs)-1 {
			out += ","
		}
		out += "\n"
	}
	return out + ")"
}

// tableColumns returns the set of columns the table actually has.
func tableColumns(ctx context.Context, db Execer, name string) (map[string]bool, error) {
	rows, err := db.Query(ctx, columnsQuery, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols[c] = true
	}
	return cols, rows.Err()
}

// isDuplicate reports whether the error is a duplicate table/column/object
// SQLSTATE, which happens when another worker won the DDL race.
func isDuplicate(err error) bool {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return false
	}
	switch pg.Code {
	case "42P07", "42701", "42710": // duplicate_table, duplicate_column, duplicate_object
		return true
	}
	return false
}
