package logic

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/cache"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/metrics"
	"github.com/antonio-alexander/go-blog-hateoas/internal/query"
	"github.com/antonio-alexander/go-blog-hateoas/internal/sql"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/pkg/errors"
)

// Logic is everything the handlers need: crud against the store and the
// search, sort and pagination pipeline over a snapshot of all employees
type Logic interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
	EmployeesSearch(ctx context.Context, search string) ([]*data.Employee, error)
	EmployeesSort(ctx context.Context, sort data.Sort) ([]*data.Employee, error)
	EmployeesPaginate(ctx context.Context, pagination data.Pagination) (*query.Page, error)
	EmployeesQuery(ctx context.Context, employeeQuery data.EmployeeQuery) (*query.Page, error)
}

type logic struct {
	sync.RWMutex
	sql    sql.Sql
	cache  cache.Cache
	config struct {
		cacheEnabled   bool
		mutateDisabled bool
		seedEnabled    bool
	}
	//KIM: generation is bumped by every mutation, a read-through only fills
	// the cache if no mutation happened between its store read and the fill
	generation struct {
		sync.Mutex
		value uint64
	}
	metrics *metrics.Metrics
	utilities.Logger
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Pinger
	Logic
} {
	l := &logic{}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case sql.Sql:
			l.sql = v
		case cache.Cache:
			l.cache = v
		case *metrics.Metrics:
			l.metrics = v
		case utilities.Logger:
			l.Logger = v
		}
	}
	if l.Logger == nil {
		l.Logger = utilities.NewLogger()
	}
	if l.metrics == nil {
		l.metrics = metrics.NewMetrics(nil)
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["LOGIC_MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	if seedEnabled, ok := envs["LOGIC_SEED_ENABLED"]; ok {
		l.config.seedEnabled, _ = strconv.ParseBool(seedEnabled)
	}
	if l.config.cacheEnabled && l.cache == nil {
		return errors.New("cache enabled, but no cache provided")
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.RLock()
	defer l.RUnlock()

	if l.sql == nil {
		return errors.New("sql not provided")
	}
	if l.config.cacheEnabled {
		l.Info(ctx, "cache enabled")
	}
	if l.config.seedEnabled {
		if err := l.seed(ctx); err != nil {
			return errors.Wrap(err, "unable to seed employees")
		}
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) Ping(ctx context.Context) error {
	if pinger, ok := l.sql.(internal.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// seed preloads the store, but only when it's empty
func (l *logic) seed(ctx context.Context) error {
	employees, err := l.sql.EmployeesRead(ctx)
	if err != nil {
		return err
	}
	if len(employees) > 0 {
		l.Debug(ctx, "store not empty (%d employees), skipping seed", len(employees))
		return nil
	}
	for _, employee := range data.SeedEmployees() {
		created, err := l.sql.EmployeeCreate(ctx, employee)
		if err != nil {
			return err
		}
		l.metrics.EmployeesSeeded.Inc()
		l.Info(ctx, "Preloading %s", created)
	}
	return nil
}

func (l *logic) mutable() error {
	l.RLock()
	defer l.RUnlock()

	if l.config.mutateDisabled {
		return data.ErrMutationDisabled
	}
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.cacheEnabled
}

func (l *logic) currentGeneration() uint64 {
	l.generation.Lock()
	defer l.generation.Unlock()

	return l.generation.value
}

// cacheFill executes fillFx unless a mutation happened since generation was read
func (l *logic) cacheFill(generation uint64, fillFx func() error) error {
	l.generation.Lock()
	defer l.generation.Unlock()

	if l.generation.value != generation {
		return nil
	}
	return fillFx()
}

// cacheWrite stores the result of a mutation
func (l *logic) cacheWrite(ctx context.Context, employee *data.Employee) {
	if !l.cacheEnabled() {
		return
	}
	l.generation.Lock()
	defer l.generation.Unlock()

	l.generation.value++
	if err := l.cache.EmployeeWrite(ctx, employee); err != nil {
		l.Error(ctx, "error while writing employee (%d) to cache: %s", employee.ID, err)
	}
}

func (l *logic) cacheDelete(ctx context.Context, id int64) {
	if !l.cacheEnabled() {
		return
	}
	l.generation.Lock()
	defer l.generation.Unlock()

	l.generation.value++
	if err := l.cache.EmployeesDelete(ctx, id); err != nil {
		l.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

func (l *logic) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	if err := l.mutable(); err != nil {
		return nil, err
	}
	defer l.metrics.ObserveQuery("employee_create", time.Now())
	created, err := l.sql.EmployeeCreate(ctx, employee)
	if err != nil {
		return nil, err
	}
	l.cacheWrite(ctx, created)
	l.Debug(ctx, "created %s", created)
	return created, nil
}

func (l *logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	cacheEnabled, generation := l.cacheEnabled(), l.currentGeneration()
	if cacheEnabled {
		employee, err := l.cache.EmployeeRead(ctx, id)
		l.metrics.CacheLookup("employee", err == nil)
		if err == nil {
			return employee, nil
		}
		l.Trace(ctx, "employee (%d) not read from cache: %s", id, err)
	}
	start := time.Now()
	employee, err := l.sql.EmployeeRead(ctx, id)
	l.metrics.ObserveQuery("employee_read", start)
	if err != nil {
		return nil, err
	}
	if cacheEnabled {
		if err := l.cacheFill(generation, func() error {
			return l.cache.EmployeeWrite(ctx, employee)
		}); err != nil {
			l.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		}
	}
	return employee, nil
}

// EmployeesRead returns the snapshot every list, search, sort and page
// operation starts from, ordered by id
func (l *logic) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	cacheEnabled, generation := l.cacheEnabled(), l.currentGeneration()
	if cacheEnabled {
		employees, err := l.cache.EmployeesReadAll(ctx)
		l.metrics.CacheLookup("employees", err == nil)
		if err == nil {
			return employees, nil
		}
		l.Trace(ctx, "employees not read from cache: %s", err)
	}
	start := time.Now()
	employees, err := l.sql.EmployeesRead(ctx)
	l.metrics.ObserveQuery("employees_read", start)
	if err != nil {
		return nil, err
	}
	if cacheEnabled {
		if err := l.cacheFill(generation, func() error {
			return l.cache.EmployeesWriteAll(ctx, employees)
		}); err != nil {
			l.Error(ctx, "error while writing employees to cache: %s", err)
		}
	}
	return employees, nil
}

func (l *logic) EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error) {
	if err := l.mutable(); err != nil {
		return nil, err
	}
	defer l.metrics.ObserveQuery("employee_upsert", time.Now())
	replaced, err := l.sql.EmployeeUpsert(ctx, id, employee)
	if err != nil {
		return nil, err
	}
	l.cacheWrite(ctx, replaced)
	l.Debug(ctx, "replaced %s", replaced)
	return replaced, nil
}

func (l *logic) EmployeeDelete(ctx context.Context, id int64) error {
	if err := l.mutable(); err != nil {
		return err
	}
	start := time.Now()
	err := l.sql.EmployeeDelete(ctx, id)
	l.metrics.ObserveQuery("employee_delete", start)
	if err != nil {
		//KIM: a stale cached copy would otherwise keep answering reads
		if errors.Is(err, data.ErrEmployeeNotFound) {
			l.cacheDelete(ctx, id)
		}
		return err
	}
	l.cacheDelete(ctx, id)
	l.Debug(ctx, "deleted employee %d", id)
	return nil
}

func (l *logic) EmployeesSearch(ctx context.Context, search string) ([]*data.Employee, error) {
	employees, err := l.EmployeesRead(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(employees, search), nil
}

func (l *logic) EmployeesSort(ctx context.Context, sort data.Sort) ([]*data.Employee, error) {
	employees, err := l.EmployeesRead(ctx)
	if err != nil {
		return nil, err
	}
	return query.Sort(employees, sort)
}

func (l *logic) EmployeesPaginate(ctx context.Context, pagination data.Pagination) (*query.Page, error) {
	employees, err := l.EmployeesRead(ctx)
	if err != nil {
		return nil, err
	}
	return query.Paginate(employees, pagination.Size, pagination.Page)
}

func (l *logic) EmployeesQuery(ctx context.Context, employeeQuery data.EmployeeQuery) (*query.Page, error) {
	employees, err := l.EmployeesRead(ctx)
	if err != nil {
		return nil, err
	}
	return query.Execute(employees, employeeQuery)
}
