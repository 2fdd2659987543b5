package database

import (
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// SQLClient is satisfied by both the postgres and sqlite clients.
type SQLClient interface {
	DB() *sql.DB
	Dialect() string
}

func newQueryBuilder(client SQLClient) *goqu.Database {
	return goqu.New(client.Dialect(), client.DB())
}
