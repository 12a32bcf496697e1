package warehouse

import (
	"context"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/snowflakedb/gosnowflake"
)

const landedTablesQuery = `SELECT table_schema, table_name, COALESCE(row_count, 0)
FROM information_schema.tables
WHERE table_type = 'BASE TABLE' AND (table_schema = ? OR table_schema LIKE ? ESCAPE '\\')
ORDER BY table_schema, table_name`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `_`, `\_`, `%`, `\%`)

type LandedTable struct {
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type DB struct {
	conn *sqlx.DB
}

func NewDB(c *Config) (*DB, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create DSN")
	}

	gosnowflake.GetLogger().SetOutput(io.Discard)

	conn, err := sqlx.Connect("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to snowflake")
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// LandedTables lists the tables in the schema named schemaPrefix and in the schemas starting
// with schemaPrefix followed by an underscore, which is where database connectors land.
func (db *DB) LandedTables(ctx context.Context, schemaPrefix string) ([]LandedTable, error) {
	prefix := strings.ToUpper(schemaPrefix)
	rows, err := db.conn.QueryxContext(ctx, landedTablesQuery, prefix, likePrefix(prefix+"_"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list the tables of schema %s", prefix)
	}
	defer rows.Close()

	var tables []LandedTable
	for rows.Next() {
		var t LandedTable
		if err := rows.Scan(&t.Schema, &t.Name, &t.RowCount); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

// likePrefix returns a LIKE pattern matching strings that start with prefix taken literally.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
