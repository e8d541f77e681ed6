package sql

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

// Database is the subset of a pgx pool used by the postgres repository,
// it's satisfied by *pgxpool.Pool and pgxmock pools
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type postgres struct {
	sync.RWMutex
	config struct {
		Hostname       string        `json:"hostname"`
		Port           string        `json:"port"`
		Username       string        `json:"username"`
		Password       string        `json:"password"`
		Database       string        `json:"database"`
		QueryTimeout   time.Duration `json:"query_timeout"`
		ConnectRetries uint          `json:"connect_retries"`
		MigrationsDir  string        `json:"migrations_dir"`
	}
	db     Database
	pool   *pgxpool.Pool
	opened bool
	utilities.Logger
}

// NewPostgres creates a repository backed by PostgreSQL; if a Database is
// provided it's used as is instead of connecting on Open
func NewPostgres(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Pinger
	Sql
} {
	p := &postgres{}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			p.Logger = v
		case Database:
			p.db = v
		}
	}
	if p.Logger == nil {
		p.Logger = utilities.NewLogger()
	}
	return p
}

func (p *postgres) Configure(envs map[string]string) error {
	p.Lock()
	defer p.Unlock()

	p.config.Port = "5432"
	configureDatabase(envs, &p.config.Hostname, &p.config.Port, &p.config.Database,
		&p.config.Username, &p.config.Password)
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		p.config.QueryTimeout = time.Duration(i) * time.Second
	}
	p.config.ConnectRetries = connectRetries(envs)
	p.config.MigrationsDir = envs["DATABASE_MIGRATIONS_DIR"]
	return nil
}

func (p *postgres) connect(ctx context.Context) (*pgxpool.Pool, error) {
	const (
		idleTime = 30 * time.Second
		hcPeriod = 30 * time.Second
	)

	dbURL := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		p.config.Username, p.config.Password,
		net.JoinHostPort(p.config.Hostname, p.config.Port), p.config.Database)
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database config")
	}
	poolConfig.MaxConnIdleTime = idleTime
	poolConfig.HealthCheckPeriod = hcPeriod
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection to PostgreSQL")
	}
	if err := pingWithRetry(ctx, p.Logger, p.config.ConnectRetries, pool.Ping); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping PostgreSQL")
	}
	return pool, nil
}

func (p *postgres) Open(ctx context.Context) error {
	p.Lock()
	defer p.Unlock()

	if p.opened {
		return nil
	}
	if p.db == nil {
		pool, err := p.connect(ctx)
		if err != nil {
			return err
		}
		if p.config.MigrationsDir != "" {
			db := stdlib.OpenDBFromPool(pool)
			err := Migrate(db, "postgres", p.config.MigrationsDir)
			_ = db.Close()
			if err != nil {
				pool.Close()
				return err
			}
		}
		p.db, p.pool = pool, pool
	}
	p.opened = true
	p.Debug(ctx, "opened postgres database")
	return nil
}

func (p *postgres) Close(ctx context.Context) error {
	p.Lock()
	defer p.Unlock()

	if !p.opened {
		return nil
	}
	p.db.Close()
	if p.pool != nil {
		p.db, p.pool = nil, nil
	}
	p.opened = false
	return nil
}

func (p *postgres) Ping(ctx context.Context) error {
	p.RLock()
	defer p.RUnlock()

	if !p.opened {
		return errors.New("postgres not opened")
	}
	return p.db.Ping(ctx)
}

func (p *postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.config.QueryTimeout)
}

func (p *postgres) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (name, surname, role, phone_code, phone_number)
		VALUES ($1, $2, $3, $4, $5) RETURNING %s;`, tableEmployees, employeeColumns)
	created, err := employeeScan(p.db.QueryRow(ctx, query, employee.Name, employee.Surname,
		employee.Role, employee.PhoneCode, employee.PhoneNumber).Scan)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create employee")
	}
	return created, nil
}

func (p *postgres) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1;`, employeeColumns, tableEmployees)
	employee, err := employeeScan(p.db.QueryRow(ctx, query, id).Scan)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, data.EmployeeNotFound(id)
	case err != nil:
		return nil, errors.Wrapf(err, "unable to read employee %d", id)
	}
	return employee, nil
}

func (p *postgres) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id;`, employeeColumns, tableEmployees)
	rows, err := p.db.Query(ctx, query)
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

func (p *postgres) EmployeeUpsert(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (id, name, surname, role, phone_code, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, surname = EXCLUDED.surname,
		role = EXCLUDED.role, phone_code = EXCLUDED.phone_code, phone_number = EXCLUDED.phone_number
		RETURNING %s;`, tableEmployees, employeeColumns)
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()
	upserted, err := employeeScan(tx.QueryRow(ctx, query, id, employee.Name, employee.Surname,
		employee.Role, employee.PhoneCode, employee.PhoneNumber).Scan)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to upsert employee %d", id)
	}
	//KIM: an explicit id doesn't advance the identity sequence, without this
	// a later create could be handed an id that's already taken
	query = fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s));`,
		tableEmployees, tableEmployees)
	if _, err := tx.Exec(ctx, query); err != nil {
		return nil, errors.Wrap(err, "unable to advance employee id sequence")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "unable to commit upsert")
	}
	return upserted, nil
}

func (p *postgres) EmployeeDelete(ctx context.Context, id int64) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1;`, tableEmployees)
	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return errors.Wrapf(err, "unable to delete employee %d", id)
	}
	if tag.RowsAffected() == 0 {
		return data.EmployeeNotFound(id)
	}
	return nil
}
