package config

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// driverName maps a storage.driver config value to the registered
// database/sql driver name.
func driverName(driver string) (string, error) {
	switch driver {
	case "", "sqlite":
		return "sqlite", nil
	case "postgres", "postgresql":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported storage driver %q (expected sqlite, postgres, or mysql)", driver)
	}
}
