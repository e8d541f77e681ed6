package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql" //import for driver support
	_ "modernc.org/sqlite"             //import for driver support
)

const (
	driverMySql  = "mysql"
	driverSqlite = "sqlite"
)

const tableEmployees = "employees"

// Sql is the employee repository; every implementation assigns ids on
// create and treats an upsert as create-or-replace under the given id
type Sql interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeUpsert(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
}

type databaseSql struct {
	sync.RWMutex
	config struct {
		Hostname       string        `json:"hostname"`
		Port           string        `json:"port"`
		Username       string        `json:"username"`
		Password       string        `json:"password"`
		Database       string        `json:"database"`
		File           string        `json:"file"`
		QueryTimeout   time.Duration `json:"query_timeout"`
		ParseTime      bool          `json:"parse_time"`
		ConnectRetries uint          `json:"connect_retries"`
		MigrationsDir  string        `json:"migrations_dir"`
	}
	driver string
	*sql.DB
	utilities.Logger
	opened bool
}

func newDatabaseSql(driver string, parameters ...any) *databaseSql {
	s := &databaseSql{driver: driver}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			s.Logger = v
		}
	}
	if s.Logger == nil {
		s.Logger = utilities.NewLogger()
	}
	return s
}

// NewMySql creates a repository backed by MySQL
func NewMySql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Pinger
	Sql
} {
	return newDatabaseSql(driverMySql, parameters...)
}

// NewSqlite creates a repository backed by an embedded SQLite database,
// DATABASE_FILE defaults to an in-memory database
func NewSqlite(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Pinger
	Sql
} {
	return newDatabaseSql(driverSqlite, parameters...)
}

func (s *databaseSql) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	configureDatabase(envs, &s.config.Hostname, &s.config.Port, &s.config.Database,
		&s.config.Username, &s.config.Password)
	if file := envs["DATABASE_FILE"]; file != "" {
		s.config.File = file
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_PARSE_TIME"]; ok {
		s.config.ParseTime, _ = strconv.ParseBool(envs["DATABASE_PARSE_TIME"])
	}
	s.config.ConnectRetries = connectRetries(envs)
	s.config.MigrationsDir = envs["DATABASE_MIGRATIONS_DIR"]
	return nil
}

func (s *databaseSql) dataSourceName() string {
	switch s.driver {
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=%t",
			s.config.Username, s.config.Password, s.config.Hostname,
			s.config.Port, s.config.Database, s.config.ParseTime)
	case driverSqlite:
		if s.config.File == "" {
			return ":memory:"
		}
		return s.config.File
	}
}

func (s *databaseSql) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return nil
	}
	db, err := sql.Open(s.driver, s.dataSourceName())
	if err != nil {
		return err
	}
	if s.driver == driverSqlite {
		//KIM: each connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}
	if err := pingWithRetry(ctx, s.Logger, s.config.ConnectRetries, db.PingContext); err != nil {
		_ = db.Close()
		return err
	}
	switch {
	case s.config.MigrationsDir != "":
		if err := Migrate(db, gooseDialect(s.driver), s.config.MigrationsDir); err != nil {
			_ = db.Close()
			return err
		}
	case s.driver == driverSqlite:
		if err := sqliteInitialize(ctx, db); err != nil {
			_ = db.Close()
			return err
		}
	}
	s.DB = db
	s.opened = true
	s.Debug(ctx, "opened %s database", s.driver)
	return nil
}

func (s *databaseSql) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.opened = false
	return nil
}

func (s *databaseSql) Ping(ctx context.Context) error {
	s.RLock()
	defer s.RUnlock()

	if !s.opened {
		return errors.New("sql not opened")
	}
	return s.DB.PingContext(ctx)
}

func (s *databaseSql) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

func (s *databaseSql) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (name, surname, role, phone_code, phone_number)
		VALUES (?, ?, ?, ?, ?);`, tableEmployees)
	result, err := s.ExecContext(ctx, query, employee.Name, employee.Surname,
		employee.Role, employee.PhoneCode, employee.PhoneNumber)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create employee")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read created employee id")
	}
	return s.EmployeeRead(ctx, id)
}

func (s *databaseSql) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?;`, employeeColumns, tableEmployees)
	row := s.QueryRowContext(ctx, query, id)
	employee, err := employeeScan(row.Scan)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, data.EmployeeNotFound(id)
	case err != nil:
		return nil, errors.Wrapf(err, "unable to read employee %d", id)
	}
	return employee, nil
}

func (s *databaseSql) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id;`, employeeColumns, tableEmployees)
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read employees")
	}
	defer rows.Close()
	employees := []*data.Employee{}
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "unable to scan employee")
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read employees")
	}
	return employees, nil
}

func (s *databaseSql) upsertQuery() string {
	switch s.driver {
	default:
		return fmt.Sprintf(`INSERT INTO %s (id, name, surname, role, phone_code, phone_number)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name), surname = VALUES(surname), role = VALUES(role),
			phone_code = VALUES(phone_code), phone_number = VALUES(phone_number);`, tableEmployees)
	case driverSqlite:
		return fmt.Sprintf(`INSERT INTO %s (id, name, surname, role, phone_code, phone_number)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, surname = excluded.surname,
			role = excluded.role, phone_code = excluded.phone_code, phone_number = excluded.phone_number;`,
			tableEmployees)
	}
}

func (s *databaseSql) EmployeeUpsert(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.ExecContext(ctx, s.upsertQuery(), id, employee.Name, employee.Surname,
		employee.Role, employee.PhoneCode, employee.PhoneNumber); err != nil {
		return nil, errors.Wrapf(err, "unable to upsert employee %d", id)
	}
	return s.EmployeeRead(ctx, id)
}

func (s *databaseSql) EmployeeDelete(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, tableEmployees)
	result, err := s.ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete employee %d", id)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return data.EmployeeNotFound(id)
	}
	return nil
}
