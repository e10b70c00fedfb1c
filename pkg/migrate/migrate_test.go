package migrate

import (
	"context"
	"testing"

	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDialect(t *testing.T) {
	d, err := Dialect(config.DBDriverPostgres)
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	d, err = Dialect(config.DBDriverSQLite)
	require.NoError(t, err)
	require.Equal(t, "sqlite3", d)

	_, err = Dialect("oracle")
	require.Error(t, err)
}

func TestRunUpAndDown(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Run(context.Background(), sqlDB, config.DBDriverSQLite, "up"))
	require.True(t, conn.Migrator().HasTable("checkout_sessions"))
	require.True(t, conn.Migrator().HasTable("placed_orders"))

	require.NoError(t, Run(context.Background(), sqlDB, config.DBDriverSQLite, "down"))
	require.False(t, conn.Migrator().HasTable("placed_orders"))
	require.True(t, conn.Migrator().HasTable("checkout_sessions"))

	require.NoError(t, Run(context.Background(), sqlDB, config.DBDriverSQLite, "reset"))
	require.False(t, conn.Migrator().HasTable("checkout_sessions"))
}
