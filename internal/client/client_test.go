package client_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/cache"
	"github.com/antonio-alexander/go-blog-hateoas/internal/client"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/logic"
	"github.com/antonio-alexander/go-blog-hateoas/internal/service"
	"github.com/antonio-alexander/go-blog-hateoas/internal/sql"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envs = map[string]string{
	//service
	"DATABASE_FILE":         "",
	"LOGIC_CACHE_ENABLED":   "false",
	"LOGIC_MUTATE_DISABLED": "false",
	"LOGIC_SEED_ENABLED":    "true",

	//client
	"CLIENT_PROTOCOL": "http",
	"CLIENT_TIMEOUT":  "10",
	"SSL_CA_FILE":     "",
	"SSL_KEY_FILE":    "",
	"SSL_CRT_FILE":    "",
	"CACHE_DISABLED":  "false",
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

type clientTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
	}
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
	client interface {
		internal.Configurer
		internal.Opener
	}
	client.Client
}

// newClientTest starts an in-process service backed by sqlite and points a
// client (with its own memory cache) at it
func newClientTest(t *testing.T, overrides map[string]string) *clientTest {
	ctx := context.TODO()
	envs := copyEnvs(overrides)
	sql := sql.NewSqlite()
	logic := logic.NewLogic(sql)
	service := service.NewService(logic)
	for _, c := range []internal.Configurer{sql, logic, service} {
		err := c.Configure(envs)
		require.Nil(t, err)
	}
	for _, o := range []internal.Opener{sql, logic} {
		err := o.Open(ctx)
		require.Nil(t, err)
	}
	server := httptest.NewServer(service)
	serverUrl, err := url.Parse(server.URL)
	require.Nil(t, err)
	envs["CLIENT_ADDRESS"] = serverUrl.Hostname()
	envs["CLIENT_PORT"] = serverUrl.Port()
	cache := cache.NewMemory()
	client := client.NewClient(cache)
	c := &clientTest{
		sql:    sql,
		cache:  cache,
		client: client,
		Client: client,
	}
	err = c.cache.Configure(envs)
	require.Nil(t, err)
	err = c.client.Configure(envs)
	require.Nil(t, err)
	err = c.cache.Open(ctx)
	require.Nil(t, err)
	err = c.client.Open(ctx)
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = c.client.Close(ctx)
		_ = c.cache.Close(ctx)
		server.Close()
		_ = logic.Close(ctx)
		_ = sql.Close(ctx)
	})
	return c
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

func ids(employees []*data.Employee) []int64 {
	ids := make([]int64, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}
	return ids
}

func TestClient(t *testing.T) {
	c := newClientTest(t, nil)
	ctx := context.TODO()

	// create
	created, err := c.EmployeeCreate(ctx, data.Employee{Name: "Radagast",
		Surname: "the Brown", Role: "wizard", PhoneCode: "62", PhoneNumber: "101010101"})
	require.Nil(t, err)
	assert.Equal(t, int64(21), created.ID)

	// the created employee was cached
	cached, err := c.cache.EmployeeRead(ctx, created.ID)
	require.Nil(t, err)
	assert.Equal(t, created, cached)

	// read
	read, err := c.EmployeeRead(ctx, created.ID)
	require.Nil(t, err)
	assert.Equal(t, created, read)

	// replace
	replaced, err := c.EmployeeReplace(ctx, created.ID, data.Employee{Name: "Radagast", Role: "istar"})
	require.Nil(t, err)
	assert.Equal(t, &data.Employee{ID: created.ID, Name: "Radagast", Role: "istar"}, replaced)
	read, err = c.EmployeeRead(ctx, created.ID)
	require.Nil(t, err)
	assert.Equal(t, replaced, read)

	// list
	employees, err := c.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Len(t, employees, 21)

	// delete
	err = c.EmployeeDelete(ctx, created.ID)
	require.Nil(t, err)
	_, err = c.cache.EmployeeRead(ctx, created.ID)
	assert.NotNil(t, err)
	_, err = c.EmployeeRead(ctx, created.ID)
	assert.True(t, errors.Is(err, data.ErrEmployeeNotFound))
	err = c.EmployeeDelete(ctx, created.ID)
	assert.True(t, errors.Is(err, data.ErrEmployeeNotFound))

	// health and cache
	err = c.Health(ctx)
	assert.Nil(t, err)
	err = c.CacheClear(ctx)
	assert.Nil(t, err)
}

func TestClientQueries(t *testing.T) {
	c := newClientTest(t, nil)
	ctx := context.TODO()

	employees, err := c.EmployeesSearch(ctx, "baggins")
	require.Nil(t, err)
	assert.Equal(t, []int64{1, 2}, ids(employees))

	employees, err = c.EmployeesSort(ctx, data.Sort{Field: data.FieldPhoneCode, Direction: data.SortDescending})
	require.Nil(t, err)
	assert.Equal(t, []int64{2, 5, 7, 20}, ids(employees)[:4])

	// walk every page following next links
	model, err := c.EmployeesPaginate(ctx, data.Pagination{Size: 6, Page: 1})
	require.Nil(t, err)
	assert.Equal(t, 4, model.Page.TotalPages)
	var walked []int64
	for {
		walked = append(walked, ids(model.Employees())...)
		if _, ok := model.Links[data.RelNext]; !ok {
			break
		}
		model, err = c.Follow(ctx, model, data.RelNext)
		require.Nil(t, err)
	}
	assert.Len(t, walked, 20)
	assert.Equal(t, int64(20), walked[len(walked)-1])
	_, err = c.Follow(ctx, model, data.RelNext)
	assert.NotNil(t, err)

	q := data.NewEmployeeQuery()
	q.Search, q.Field, q.Size = "b", data.FieldPhoneCode, 2
	model, err = c.EmployeesQuery(ctx, q)
	require.Nil(t, err)
	assert.Equal(t, []int64{8, 9}, ids(model.Employees()))
	model, err = c.Follow(ctx, model, data.RelLast)
	require.Nil(t, err)
	assert.Equal(t, []int64{2}, ids(model.Employees()))

	_, err = c.EmployeesPaginate(ctx, data.Pagination{Size: 0, Page: 1})
	assert.True(t, data.IsValidationError(err))
}

func TestClientMutationDisabled(t *testing.T) {
	c := newClientTest(t, map[string]string{"LOGIC_MUTATE_DISABLED": "true"})
	ctx := context.TODO()

	_, err := c.EmployeeCreate(ctx, data.Employee{Name: "Sauron"})
	assert.True(t, errors.Is(err, data.ErrMutationDisabled))
	err = c.EmployeeDelete(ctx, 1)
	assert.True(t, errors.Is(err, data.ErrMutationDisabled))
}

func TestClientCacheDisabled(t *testing.T) {
	c := newClientTest(t, map[string]string{"CACHE_DISABLED": "true"})
	ctx := context.TODO()

	employee, err := c.EmployeeRead(ctx, 1)
	require.Nil(t, err)
	assert.Equal(t, "Bilbo", employee.Name)
	_, err = c.cache.EmployeeRead(ctx, 1)
	assert.True(t, errors.Is(err, cache.ErrEmployeeNotCached))
}

func TestClientNotOpened(t *testing.T) {
	c := client.NewClient()
	_, err := c.EmployeeRead(context.TODO(), 1)
	assert.NotNil(t, err)

	err = c.Configure(map[string]string{"CLIENT_PROTOCOL": "ftp"})
	require.Nil(t, err)
	err = c.Open(context.TODO())
	assert.NotNil(t, err)

	err = c.Configure(map[string]string{"CLIENT_TIMEOUT": "abc"})
	assert.NotNil(t, err)
}
