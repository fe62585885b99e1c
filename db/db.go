package db

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/sqlite"
)

var (
	dbClient database.IDatabase
)

var sqllist = []struct {
	name string
	sql  string
}{
	{
		name: "init_dav_lock_tab",
		sql: `
CREATE TABLE IF NOT EXISTS dav_lock_tab (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    lock_token      TEXT NOT NULL,
    node_path       TEXT NOT NULL,
    lock_scope      TEXT NOT NULL,
    lock_owner      TEXT,
    lock_depth      INTEGER NOT NULL,
    timeout_seconds INTEGER NOT NULL,
    ctime           INTEGER,
    mtime           INTEGER,
    expire_at       INTEGER NOT NULL,
    UNIQUE (lock_token)
);
		`,
	},
	{
		name: "init_dav_lock_tab_path_idx",
		sql: `
CREATE INDEX IF NOT EXISTS idx_dav_lock_tab_node_path ON dav_lock_tab (node_path);
		`,
	},
}

func InitDB(file string) error {
	ctx := context.Background()
	db, err := sqlite.New(file, func(db database.IDatabase) error {
		for _, item := range sqllist {
			if _, err := db.ExecContext(ctx, item.sql); err != nil {
				return fmt.Errorf("init sql failed, sql:%s, err:%w", item.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	dbClient = db
	return nil
}

func GetClient() database.IDatabase {
	return dbClient
}
