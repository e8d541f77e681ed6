package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/cache"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/pkg/errors"
)

type Client interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
	EmployeesSearch(ctx context.Context, search string) ([]*data.Employee, error)
	EmployeesSort(ctx context.Context, sort data.Sort) ([]*data.Employee, error)
	EmployeesPaginate(ctx context.Context, pagination data.Pagination) (*data.EmployeesModel, error)
	EmployeesQuery(ctx context.Context, employeeQuery data.EmployeeQuery) (*data.EmployeesModel, error)
	Follow(ctx context.Context, model *data.EmployeesModel, rel string) (*data.EmployeesModel, error)
	CacheClear(ctx context.Context) error
	Health(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol      string
		address       string
		port          string
		timeout       int64
		sslCaFile     string
		sslCrtFile    string
		sslKeyFile    string
		cacheDisabled bool
	}
	address string
	cache   cache.Cache
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{Client: &http.Client{}}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case cache.Cache:
			c.cache = p
		case utilities.Logger:
			c.Logger = p
		}
	}
	if c.Logger == nil {
		c.Logger = utilities.NewLogger()
	}
	c.config.protocol = "http"
	c.config.address = "localhost"
	c.config.port = "8080"
	c.config.timeout = 10
	return c
}

// errorFromStatus converts the service's error statuses back into the
// errors that produced them
func errorFromStatus(err error) error {
	var statusError *internal.StatusError

	if !errors.As(err, &statusError) {
		return err
	}
	switch statusError.StatusCode {
	default:
		return err
	case http.StatusNotFound:
		return errors.Wrap(data.ErrEmployeeNotFound, statusError.Message)
	case http.StatusForbidden:
		return errors.Wrap(data.ErrMutationDisabled, statusError.Message)
	case http.StatusBadRequest:
		return data.NewValidationError("request", "", "%s", statusError.Message)
	}
}

func (c *client) doRequest(ctx context.Context, uri, method string, input any, v ...any) error {
	c.RLock()
	address := c.address
	c.RUnlock()

	if address == "" {
		return errors.New("client not opened")
	}
	if !strings.HasPrefix(uri, "http") {
		uri = address + uri
	}
	_, err := internal.DoRequest(ctx, c.Client, uri, method, input, v...)
	return errorFromStatus(err)
}

func (c *client) cacheEnabled() bool {
	c.RLock()
	defer c.RUnlock()

	return c.cache != nil && !c.config.cacheDisabled
}

func (c *client) cacheWrite(ctx context.Context, employee *data.Employee) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.EmployeeWrite(ctx, employee); err != nil {
		c.Error(ctx, "error while writing employee (%d) to cache: %s", employee.ID, err)
	}
}

func (c *client) cacheDelete(ctx context.Context, id int64) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.EmployeesDelete(ctx, id); err != nil {
		c.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address, ok := envs["CLIENT_ADDRESS"]; ok && address != "" {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok && port != "" {
		c.config.port = port
	}
	if protocol, ok := envs["CLIENT_PROTOCOL"]; ok && protocol != "" {
		c.config.protocol = protocol
	}
	if timeout, ok := envs["CLIENT_TIMEOUT"]; ok && timeout != "" {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid CLIENT_TIMEOUT %q", timeout)
		}
		c.config.timeout = i
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	if cacheDisabled, ok := envs["CACHE_DISABLED"]; ok {
		c.config.cacheDisabled, _ = strconv.ParseBool(cacheDisabled)
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	if c.cache == nil || c.config.cacheDisabled {
		c.Info(ctx, "client: cache disabled")
	}
	c.Client.Timeout = time.Duration(c.config.timeout) * time.Second
	transport, err := getTransport(c.config.sslCaFile, c.config.sslCrtFile,
		c.config.sslKeyFile)
	if err != nil {
		return err
	}
	c.Client.Transport = transport
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.address = ""
	return nil
}

func (c *client) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	model := &data.EmployeeModel{}
	if err := c.doRequest(ctx, data.RouteEmployees, http.MethodPost, &employee, model); err != nil {
		return nil, err
	}
	created := model.Employee
	c.cacheWrite(ctx, &created)
	return &created, nil
}

func (c *client) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	if c.cacheEnabled() {
		employee, err := c.cache.EmployeeRead(ctx, id)
		if err == nil {
			return employee, nil
		}
		c.Trace(ctx, "employee (%d) not read from cache: %s", id, err)
	}
	model := &data.EmployeeModel{}
	uri := fmt.Sprintf(data.RouteEmployeesIdf, id)
	if err := c.doRequest(ctx, uri, http.MethodGet, nil, model); err != nil {
		return nil, err
	}
	employee := model.Employee
	c.cacheWrite(ctx, &employee)
	return &employee, nil
}

func (c *client) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	model := &data.EmployeesModel{}
	if err := c.doRequest(ctx, data.RouteEmployees, http.MethodGet, nil, model); err != nil {
		return nil, err
	}
	return model.Employees(), nil
}

func (c *client) EmployeeReplace(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error) {
	model := &data.EmployeeModel{}
	uri := fmt.Sprintf(data.RouteEmployeesIdf, id)
	if err := c.doRequest(ctx, uri, http.MethodPut, &employee, model); err != nil {
		return nil, err
	}
	replaced := model.Employee
	c.cacheWrite(ctx, &replaced)
	return &replaced, nil
}

func (c *client) EmployeeDelete(ctx context.Context, id int64) error {
	uri := fmt.Sprintf(data.RouteEmployeesIdf, id)
	err := c.doRequest(ctx, uri, http.MethodDelete, nil)
	if err == nil || errors.Is(err, data.ErrEmployeeNotFound) {
		c.cacheDelete(ctx, id)
	}
	return err
}

func (c *client) EmployeesSearch(ctx context.Context, search string) ([]*data.Employee, error) {
	model := &data.EmployeesModel{}
	params := url.Values{data.ParameterSearch: {search}}
	if err := c.doRequest(ctx, data.RouteEmployeesSearch, http.MethodGet, params, model); err != nil {
		return nil, err
	}
	return model.Employees(), nil
}

func (c *client) EmployeesSort(ctx context.Context, sort data.Sort) ([]*data.Employee, error) {
	model := &data.EmployeesModel{}
	if err := c.doRequest(ctx, data.RouteEmployeesSort, http.MethodGet, sort.ToParams(), model); err != nil {
		return nil, err
	}
	return model.Employees(), nil
}

func (c *client) EmployeesPaginate(ctx context.Context, pagination data.Pagination) (*data.EmployeesModel, error) {
	model := &data.EmployeesModel{}
	if err := c.doRequest(ctx, data.RouteEmployeesPaginate, http.MethodGet, pagination.ToParams(), model); err != nil {
		return nil, err
	}
	return model, nil
}

func (c *client) EmployeesQuery(ctx context.Context, employeeQuery data.EmployeeQuery) (*data.EmployeesModel, error) {
	model := &data.EmployeesModel{}
	if err := c.doRequest(ctx, data.RouteEmployeesV2, http.MethodGet, employeeQuery.ToParams(), model); err != nil {
		return nil, err
	}
	return model, nil
}

// Follow retrieves the collection a link of model points to (e.g. next)
func (c *client) Follow(ctx context.Context, model *data.EmployeesModel, rel string) (*data.EmployeesModel, error) {
	link, ok := model.Links[rel]
	if !ok {
		return nil, errors.Errorf("no %s link", rel)
	}
	followed := &data.EmployeesModel{}
	if err := c.doRequest(ctx, link.Href, http.MethodGet, nil, followed); err != nil {
		return nil, err
	}
	return followed, nil
}

func (c *client) CacheClear(ctx context.Context) error {
	if err := c.doRequest(ctx, data.RouteCache, http.MethodDelete, nil); err != nil {
		return err
	}
	if c.cacheEnabled() {
		if clearer, ok := c.cache.(internal.Clearer); ok {
			return clearer.Clear(ctx)
		}
	}
	return nil
}

func (c *client) Health(ctx context.Context) error {
	return c.doRequest(ctx, data.RouteHealth, http.MethodGet, nil)
}
