package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// InsertInterface is satisfied by both *sqlx.DB and *sqlx.Tx
type InsertInterface interface {
	sqlx.ExtContext
}

type db struct {
	writeConnection *sqlx.DB
	readConnection  *sqlx.DB
}

func newDB(conf *Config) *db {
	return &db{
		writeConnection: conf.WriteOnlyDbConn,
		readConnection:  conf.ReadOnlyDbConn,
	}
}

func (db *db) query(ctx context.Context, objMap map[string]interface{}, query string, conn InsertInterface) ([]map[string]interface{}, error) {
	rows, err := sqlx.NamedQueryContext(ctx, conn, query, stripInternal(objMap))
	if err != nil {
		return nil, translateDBError(err)
	}
	defer rows.Close()

	objs := []map[string]interface{}{}

	for rows.Next() {
		row := map[string]interface{}{}
		err = rows.MapScan(row)
		if err != nil {
			return nil, err
		}

		// text columns come back from the driver as []byte
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}

		// set the struct name
		row[objMapStructNameKey] = objMap[objMapStructNameKey]
		objs = append(objs, row)
	}

	if err := rows.Err(); err != nil {
		return nil, translateDBError(err)
	}
	return objs, nil
}

func (db *db) writeConn() *sqlx.DB {
	return db.writeConnection
}

func (db *db) readConn() *sqlx.DB {
	return db.readConnection
}
