package svc

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sealbin/cfg"
	"sealbin/svc/cache"
	"sealbin/svc/db"
)

func testCfg() *cfg.Cfg {
	return &cfg.Cfg{
		Port:            "0",
		Environment:     "test",
		LogLevel:        "error",
		APIToken:        cfg.NewSecret("test-api-token"),
		MaxPasteSize:    1024,
		ExpiryRequired:  false,
		MaxExpiry:       8760 * time.Hour,
		ReportsEnabled:  true,
		ReportMinLength: 10,
		SweepInterval:   60 * time.Second,
		LRUCacheSize:    100,
		ContextTimeout:  5 * time.Second,
	}
}

func testDB(t *testing.T) *db.SQLite {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqlDB, err := db.NewSQLiteWithConfig(dsn, 10, 5, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func testLRU(t *testing.T) *cache.LRU {
	t.Helper()
	lru, err := cache.NewLRU(100)
	require.NoError(t, err)
	return lru
}

func testPasteService(t *testing.T, c *cfg.Cfg) (*Paste, *db.SQLite) {
	t.Helper()
	sqlDB := testDB(t)
	return NewPaste(sqlDB, testLRU(t), nil, c), sqlDB
}
