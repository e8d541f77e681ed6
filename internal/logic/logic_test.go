package logic_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/cache"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/logic"
	"github.com/antonio-alexander/go-blog-hateoas/internal/metrics"
	"github.com/antonio-alexander/go-blog-hateoas/internal/sql"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envs = map[string]string{
	//sql
	"DATABASE_FILE":            "",
	"DATABASE_QUERY_TIMEOUT":   "10",
	"DATABASE_CONNECT_RETRIES": "1",
	//logic
	"LOGIC_CACHE_ENABLED":   "true",
	"LOGIC_MUTATE_DISABLED": "false",
	"LOGIC_SEED_ENABLED":    "true",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			if _, ok := envs[s[0]]; !ok {
				envs[s[0]] = strings.Join(s[1:], "=")
			}
		}
	}
}

func copyEnvs(overrides map[string]string) map[string]string {
	copied := make(map[string]string, len(envs)+len(overrides))
	for key, value := range envs {
		copied[key] = value
	}
	for key, value := range overrides {
		copied[key] = value
	}
	return copied
}

type logicTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
		sql.Sql
	}
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
	logic interface {
		internal.Configurer
		internal.Opener
		internal.Pinger
	}
	metrics *metrics.Metrics
	logic.Logic
}

func newLogicTest() *logicTest {
	sql := sql.NewSqlite()
	cache := cache.NewMemory()
	metrics := metrics.NewMetrics(prometheus.NewRegistry())
	logic := logic.NewLogic(sql, cache, metrics)
	return &logicTest{
		sql:     sql,
		cache:   cache,
		logic:   logic,
		metrics: metrics,
		Logic:   logic,
	}
}

func (l *logicTest) Configure(envs map[string]string) error {
	if err := l.sql.Configure(envs); err != nil {
		return err
	}
	if err := l.cache.Configure(envs); err != nil {
		return err
	}
	if err := l.logic.Configure(envs); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Open(ctx context.Context) error {
	if err := l.sql.Open(ctx); err != nil {
		return err
	}
	if err := l.cache.Open(ctx); err != nil {
		return err
	}
	if err := l.logic.Open(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Close(ctx context.Context) {
	_ = l.logic.Close(ctx)
	_ = l.cache.Close(ctx)
	_ = l.sql.Close(ctx)
}

func openLogicTest(t *testing.T, envs map[string]string) *logicTest {
	l := newLogicTest()
	ctx := context.TODO()
	err := l.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure logic")
	}
	err = l.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open logic")
	}
	t.Cleanup(func() { l.Close(ctx) })
	return l
}

func ids(employees []*data.Employee) []int64 {
	ids := make([]int64, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}
	return ids
}

func TestSeed(t *testing.T) {
	l := openLogicTest(t, envs)
	ctx := context.TODO()

	employees, err := l.EmployeesRead(ctx)
	require.Nil(t, err)
	require.Len(t, employees, len(data.SeedEmployees()))
	assert.Equal(t, int64(1), employees[0].ID)
	assert.Equal(t, "Bilbo", employees[0].Name)
	assert.Equal(t, float64(len(data.SeedEmployees())), testutil.ToFloat64(l.metrics.EmployeesSeeded))

	// opening again doesn't seed a second time
	err = l.logic.Open(ctx)
	assert.Nil(t, err)
	err = l.cache.Clear(ctx)
	assert.Nil(t, err)
	employees, err = l.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Len(t, employees, len(data.SeedEmployees()))

	err = l.logic.Ping(ctx)
	assert.Nil(t, err)
}

func TestCrud(t *testing.T) {
	l := openLogicTest(t, copyEnvs(map[string]string{"LOGIC_SEED_ENABLED": "false"}))
	ctx := context.TODO()

	// empty store
	employees, err := l.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Empty(t, employees)

	// create ignores the id
	created, err := l.EmployeeCreate(ctx, data.Employee{ID: 99, Name: "Frodo",
		Surname: "Baggins", Role: "ring bearer", PhoneCode: "998", PhoneNumber: "72827615"})
	require.Nil(t, err)
	assert.NotEqual(t, int64(99), created.ID)

	// the cached snapshot was invalidated by the create
	employees, err = l.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Equal(t, []*data.Employee{created}, employees)

	// read
	read, err := l.EmployeeRead(ctx, created.ID)
	require.Nil(t, err)
	assert.Equal(t, created, read)

	// replace
	replaced, err := l.EmployeeReplace(ctx, created.ID, data.Employee{Name: "Samwise", Role: "gardener"})
	require.Nil(t, err)
	assert.Equal(t, &data.Employee{ID: created.ID, Name: "Samwise", Role: "gardener"}, replaced)
	read, err = l.EmployeeRead(ctx, created.ID)
	require.Nil(t, err)
	assert.Equal(t, replaced, read)

	// replace creates when absent
	upserted, err := l.EmployeeReplace(ctx, 42, data.Employee{Name: "Gandalf"})
	require.Nil(t, err)
	assert.Equal(t, int64(42), upserted.ID)
	employees, err = l.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Equal(t, []int64{created.ID, 42}, ids(employees))

	// delete
	err = l.EmployeeDelete(ctx, created.ID)
	require.Nil(t, err)
	_, err = l.EmployeeRead(ctx, created.ID)
	assert.True(t, errors.Is(err, data.ErrEmployeeNotFound))
	err = l.EmployeeDelete(ctx, created.ID)
	assert.True(t, errors.Is(err, data.ErrEmployeeNotFound))
	employees, err = l.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Equal(t, []int64{42}, ids(employees))
}

func TestCacheReadThrough(t *testing.T) {
	l := openLogicTest(t, envs)
	ctx := context.TODO()

	hits := func(key string) float64 {
		return testutil.ToFloat64(l.metrics.CacheLookups.WithLabelValues(key, "hit"))
	}

	_, err := l.EmployeeRead(ctx, 4)
	require.Nil(t, err)
	_, err = l.EmployeeRead(ctx, 4)
	require.Nil(t, err)
	assert.Equal(t, 1.0, hits("employee"))

	_, err = l.EmployeesRead(ctx)
	require.Nil(t, err)
	_, err = l.EmployeesSearch(ctx, "baggins")
	require.Nil(t, err)
	assert.Equal(t, 1.0, hits("employees"))

	// a change made behind the cache's back isn't seen until it's cleared
	_, err = l.sql.EmployeeUpsert(ctx, 4, data.Employee{Name: "Saruman"})
	require.Nil(t, err)
	employee, err := l.EmployeeRead(ctx, 4)
	require.Nil(t, err)
	assert.Equal(t, "Gandalf", employee.Name)
	err = l.cache.Clear(ctx)
	require.Nil(t, err)
	employee, err = l.EmployeeRead(ctx, 4)
	require.Nil(t, err)
	assert.Equal(t, "Saruman", employee.Name)
}

func TestMutationDisabled(t *testing.T) {
	l := openLogicTest(t, copyEnvs(map[string]string{"LOGIC_MUTATE_DISABLED": "true"}))
	ctx := context.TODO()

	_, err := l.EmployeeCreate(ctx, data.Employee{Name: "Sauron"})
	assert.True(t, errors.Is(err, data.ErrMutationDisabled))
	_, err = l.EmployeeReplace(ctx, 1, data.Employee{Name: "Sauron"})
	assert.True(t, errors.Is(err, data.ErrMutationDisabled))
	err = l.EmployeeDelete(ctx, 1)
	assert.True(t, errors.Is(err, data.ErrMutationDisabled))

	// reads still work
	employee, err := l.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	assert.Equal(t, "Bilbo", employee.Name)
}

func TestCacheEnabledWithoutCache(t *testing.T) {
	l := logic.NewLogic(sql.NewSqlite())
	err := l.Configure(map[string]string{"LOGIC_CACHE_ENABLED": "true"})
	assert.NotNil(t, err)
}

func TestPipeline(t *testing.T) {
	l := openLogicTest(t, envs)
	ctx := context.TODO()

	employees, err := l.EmployeesSearch(ctx, "BAGGINS")
	require.Nil(t, err)
	assert.Equal(t, []int64{1, 2}, ids(employees))

	employees, err = l.EmployeesSort(ctx, data.Sort{Field: data.FieldPhoneCode,
		Direction: data.SortDescending})
	require.Nil(t, err)
	assert.Equal(t, []int64{2, 5, 7, 20, 3, 1, 14, 15}, ids(employees[:8]))

	page, err := l.EmployeesPaginate(ctx, data.Pagination{Size: 5, Page: 4})
	require.Nil(t, err)
	assert.Equal(t, []int64{16, 17, 18, 19, 20}, ids(page.Employees))
	assert.Equal(t, 4, page.TotalPages)

	_, err = l.EmployeesPaginate(ctx, data.Pagination{Size: 0, Page: 1})
	assert.True(t, data.IsValidationError(err))

	q := data.NewEmployeeQuery()
	q.Search, q.Field, q.Size = "b", data.FieldPhoneCode, 2
	page, err = l.EmployeesQuery(ctx, q)
	require.Nil(t, err)
	assert.Equal(t, []int64{8, 9}, ids(page.Employees))
	assert.Equal(t, 5, page.TotalElements)

	// a non-numeric phone code fails numeric sorting
	_, err = l.EmployeeCreate(ctx, data.Employee{Name: "Nobody", PhoneCode: "n/a"})
	require.Nil(t, err)
	_, err = l.EmployeesSort(ctx, data.Sort{Field: data.FieldPhoneCode})
	assert.True(t, data.IsValidationError(err))
}

type sqlStore interface {
	internal.Configurer
	internal.Opener
	sql.Sql
}

// blockingSql holds reads open until released so a mutation can slip in
// between a store read and the cache fill that follows it
type blockingSql struct {
	sqlStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSql) wait() {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
}

func (b *blockingSql) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee, err := b.sqlStore.EmployeeRead(ctx, id)
	b.wait()
	return employee, err
}

func (b *blockingSql) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	employees, err := b.sqlStore.EmployeesRead(ctx)
	b.wait()
	return employees, err
}

func TestCacheFillRace(t *testing.T) {
	ctx := context.TODO()
	envs := copyEnvs(map[string]string{"LOGIC_SEED_ENABLED": "false"})
	store := &blockingSql{
		sqlStore: sql.NewSqlite(),
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	cache := cache.NewMemory()
	l := logic.NewLogic(store, cache)
	for _, c := range []internal.Configurer{store, cache, l} {
		err := c.Configure(envs)
		require.Nil(t, err)
	}
	for _, o := range []internal.Opener{store, cache, l} {
		err := o.Open(ctx)
		require.Nil(t, err)
	}
	t.Cleanup(func() {
		_ = cache.Close(ctx)
		_ = store.Close(ctx)
	})
	bilbo, err := store.sqlStore.EmployeeCreate(ctx, data.Employee{Name: "Bilbo"})
	require.Nil(t, err)

	// a list read that started before a create must not cache the old list
	chErr := make(chan error, 1)
	go func() {
		_, err := l.EmployeesRead(ctx)
		chErr <- err
	}()
	<-store.entered
	frodo, err := l.EmployeeCreate(ctx, data.Employee{Name: "Frodo"})
	require.Nil(t, err)
	close(store.release)
	require.Nil(t, <-chErr)
	employees, err := l.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Equal(t, []int64{bilbo.ID, frodo.ID}, ids(employees))

	// same for a single employee read racing a replace
	select {
	case <-store.entered:
	default:
	}
	err = cache.Clear(ctx)
	require.Nil(t, err)
	store.release = make(chan struct{})
	go func() {
		_, err := l.EmployeeRead(ctx, bilbo.ID)
		chErr <- err
	}()
	<-store.entered
	_, err = l.EmployeeReplace(ctx, bilbo.ID, data.Employee{Name: "Baggins"})
	require.Nil(t, err)
	close(store.release)
	require.Nil(t, <-chErr)
	employee, err := l.EmployeeRead(ctx, bilbo.ID)
	require.Nil(t, err)
	assert.Equal(t, "Baggins", employee.Name)
}
