package sql

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/cenkalti/backoff/v5"
)

const (
	employeeColumns       = "id, name, surname, role, phone_code, phone_number"
	defaultConnectRetries = 5
)

func employeeScan(scanFx func(...any) error) (*data.Employee, error) {
	employee := new(data.Employee)
	if err := scanFx(
		&employee.ID,
		&employee.Name,
		&employee.Surname,
		&employee.Role,
		&employee.PhoneCode,
		&employee.PhoneNumber,
	); err != nil {
		return nil, err
	}
	return employee, nil
}

func configureDatabase(envs map[string]string, hostname, port, database, username, password *string) {
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		*hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		*port = databasePort
	}
	if databaseName := envs["DATABASE_NAME"]; databaseName != "" {
		*database = databaseName
	}
	if databaseUser := envs["DATABASE_USER"]; databaseUser != "" {
		*username = databaseUser
	}
	if databasePassword := envs["DATABASE_PASSWORD"]; databasePassword != "" {
		*password = databasePassword
	}
}

func connectRetries(envs map[string]string) uint {
	if s := envs["DATABASE_CONNECT_RETRIES"]; s != "" {
		if i, err := strconv.ParseUint(s, 10, 32); err == nil && i > 0 {
			return uint(i)
		}
	}
	return defaultConnectRetries
}

// pingWithRetry pings until the database answers, backing off exponentially
// between attempts; only connection establishment is retried, never queries
func pingWithRetry(ctx context.Context, logger utilities.Logger, maxTries uint, pingFx func(context.Context) error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pingFx(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Info(ctx, "database not ready (%s), retrying in %v", err, next)
		}),
	)
	return err
}

func gooseDialect(driver string) string {
	switch driver {
	default:
		return driver
	case driverSqlite:
		return "sqlite3"
	}
}

func sqliteInitialize(ctx context.Context, db *sql.DB) error {
	for _, statement := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT '',
			surname TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			phone_code TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT ''
		)`,
	} {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
