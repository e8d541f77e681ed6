package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/cache"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/logic"
	"github.com/antonio-alexander/go-blog-hateoas/internal/metrics"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		exposedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
	}
	ctx     context.Context
	cancel  context.CancelFunc
	handler http.Handler
	*mux.Router
	*http.Server
	cache    internal.Clearer
	pinger   internal.Pinger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	utilities.Logger
	logic.Logic
}

// NewService creates the http service, routes are available as soon as it's
// configured (it's an http.Handler) but it only listens once opened
func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	http.Handler
} {
	router := mux.NewRouter()
	s := &service{
		Router: router,
		Server: &http.Server{},
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case interface {
			cache.Cache
			internal.Clearer
		}:
			s.cache = p
		case logic.Logic:
			s.Logic = p
			if pinger, ok := p.(internal.Pinger); ok {
				s.pinger = pinger
			}
		case *metrics.Metrics:
			s.metrics = p
		case prometheus.Gatherer:
			s.gatherer = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	if s.Logger == nil {
		s.Logger = utilities.NewLogger()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics(nil)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.Server.Handler = s
	s.config.shutdownTimeout = 10 * time.Second
	s.config.allowedOrigins = []string{"*"}
	s.config.allowedMethods = []string{http.MethodGet, http.MethodPost,
		http.MethodPut, http.MethodDelete, http.MethodOptions}
	s.config.allowedHeaders = []string{"Content-Type", data.HeaderCorrelationId}
	s.config.exposedHeaders = []string{"Location", data.HeaderCorrelationId}
	s.buildRoutes()
	return s
}

func (s *service) launchServer() error {
	started := make(chan struct{})
	chErr := make(chan error, 1)
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()
		defer close(chErr)

		close(started)
		if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			chErr <- err
		}
	}()
	<-started
	select {
	case err := <-chErr:
		//KIM: here we're accounting for a situation where the server closes unexpectedly
		// but quickly (within a second of starting); this allows us to respond to errors such as
		// the port being already used
		return err
	case <-time.After(time.Second):
		s.Info(s.ctx, "started server: %s", s.Server.Addr)
		return nil
	}
}

func (s *service) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.RLock()
	handler := s.handler
	s.RUnlock()
	if handler == nil {
		handler = s.Router
	}
	handler.ServeHTTP(writer, request)
}

// middleware attaches a correlation id to the request and records request
// metrics against the matched route template
func (s *service) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		correlationId := getCorrelationId(request)
		writer.Header().Set(data.HeaderCorrelationId, correlationId)
		request = request.WithContext(internal.CtxWithCorrelationId(request.Context(), correlationId))
		recorder := &statusRecorder{ResponseWriter: writer, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, request)
		route := request.URL.Path
		if current := mux.CurrentRoute(request); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		s.metrics.Requests.WithLabelValues(route, request.Method, strconv.Itoa(recorder.statusCode)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route, request.Method).Observe(time.Since(start).Seconds())
		s.Trace(request.Context(), "%s %s: %d (%v)", request.Method, request.URL.Path,
			recorder.statusCode, time.Since(start))
	})
}

func (s *service) endpointDefault(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", data.ContentTypeText)
	fmt.Fprintf(writer,
		"go-blog-hateoas\n"+
			"Version: \"%s\"\n"+
			"Git Commit: \"%s\"\n"+
			"Git Branch: \"%s\"\n",
		Version, GitCommit, GitBranch)
}

func (s *service) endpointEmployeesRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employees, err := s.EmployeesRead(ctx)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	model := presenter(request).Employees(employees, data.RouteEmployees, nil)
	s.handleResponse(ctx, writer, nil, http.StatusOK, model)
	s.Trace(ctx, "executed employees_read: %d", len(employees))
}

func (s *service) endpointEmployeeCreate(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employee, err := employeeFromBody(request)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusCreated, nil)
		return
	}
	created, err := s.EmployeeCreate(ctx, *employee)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusCreated, nil)
		return
	}
	p := presenter(request)
	writer.Header().Set("Location", p.EmployeeHref(created.ID))
	s.handleResponse(ctx, writer, nil, http.StatusCreated, p.Employee(created))
	s.Trace(ctx, "executed employee_create: %d", created.ID)
}

func (s *service) endpointEmployeeRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	employee, err := s.EmployeeRead(ctx, id)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	s.handleResponse(ctx, writer, nil, http.StatusOK, presenter(request).Employee(employee))
	s.Trace(ctx, "executed employee_read: %d", id)
}

func (s *service) endpointEmployeeReplace(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusCreated, nil)
		return
	}
	employee, err := employeeFromBody(request)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusCreated, nil)
		return
	}
	replaced, err := s.EmployeeReplace(ctx, id, *employee)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusCreated, nil)
		return
	}
	p := presenter(request)
	writer.Header().Set("Location", p.EmployeeHref(replaced.ID))
	s.handleResponse(ctx, writer, nil, http.StatusCreated, p.Employee(replaced))
	s.Trace(ctx, "executed employee_replace: %d", id)
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	if err := s.EmployeeDelete(ctx, id); err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	s.handleResponse(ctx, writer, nil, http.StatusOK,
		fmt.Sprintf("Employee with ID %d deleted successfully", id))
	s.Trace(ctx, "executed employee_delete: %d", id)
}

func (s *service) endpointEmployeesSearch(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	search := request.URL.Query().Get(data.ParameterSearch)
	employees, err := s.EmployeesSearch(ctx, search)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	model := presenter(request).Employees(employees, data.RouteEmployeesSearch,
		map[string][]string{data.ParameterSearch: {search}})
	s.handleResponse(ctx, writer, nil, http.StatusOK, model)
	s.Trace(ctx, "executed employees_search: %q (%d)", search, len(employees))
}

func (s *service) endpointEmployeesSort(writer http.ResponseWriter, request *http.Request) {
	var sort data.Sort

	ctx := request.Context()
	sort.FromParams(request.URL.Query())
	employees, err := s.EmployeesSort(ctx, sort)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	model := presenter(request).Employees(employees, data.RouteEmployeesSort, sort.ToParams())
	s.handleResponse(ctx, writer, nil, http.StatusOK, model)
	s.Trace(ctx, "executed employees_sort: %s %s", sort.Field, sort.Direction)
}

func (s *service) endpointEmployeesPaginate(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	pagination := data.Pagination{Size: data.DefaultPageSize, Page: data.DefaultPage}
	if err := pagination.FromParams(request.URL.Query()); err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	page, err := s.EmployeesPaginate(ctx, pagination)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	model := presenter(request).Page(page, data.RouteEmployeesPaginate,
		data.EmployeeQuery{Pagination: pagination})
	s.handleResponse(ctx, writer, nil, http.StatusOK, model)
	s.Trace(ctx, "executed employees_paginate: page %d of %d", page.Number, page.TotalPages)
}

func (s *service) endpointEmployeesQuery(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employeeQuery := data.NewEmployeeQuery()
	if err := employeeQuery.FromParams(request.URL.Query()); err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	page, err := s.EmployeesQuery(ctx, employeeQuery)
	if err != nil {
		s.handleResponse(ctx, writer, err, http.StatusOK, nil)
		return
	}
	model := presenter(request).Page(page, data.RouteEmployeesV2, employeeQuery)
	s.handleResponse(ctx, writer, nil, http.StatusOK, model)
	s.Trace(ctx, "executed employees_query: page %d of %d", page.Number, page.TotalPages)
}

func (s *service) endpointCacheClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.handleResponse(ctx, writer, err, http.StatusNoContent, nil)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (s *service) endpointHealth(writer http.ResponseWriter, request *http.Request) {
	var health struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	ctx := request.Context()
	statusCode := http.StatusOK
	health.Status = "ok"
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			s.Error(ctx, "health check failed: %s", err)
			statusCode, health.Status, health.Error = http.StatusServiceUnavailable, "unavailable", err.Error()
		}
	}
	bytes, _ := json.Marshal(&health)
	writer.Header().Set("Content-Type", data.ContentTypeJson)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(bytes)
}

func (s *service) buildRoutes() {
	s.Router.Use(s.middleware)
	s.Router.HandleFunc("/", s.endpointDefault).Methods(http.MethodGet)
	s.Router.HandleFunc(data.RouteEmployees, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeesRead(w, r)
		case http.MethodPost:
			s.endpointEmployeeCreate(w, r)
		}
	})
	//KIM: these have to be registered before the {id} route or they'd be
	// parsed as (invalid) ids
	s.Router.HandleFunc(data.RouteEmployeesSearch, s.endpointEmployeesSearch).Methods(http.MethodGet)
	s.Router.HandleFunc(data.RouteEmployeesSort, s.endpointEmployeesSort).Methods(http.MethodGet)
	s.Router.HandleFunc(data.RouteEmployeesPaginate, s.endpointEmployeesPaginate).Methods(http.MethodGet)
	s.Router.HandleFunc(data.RouteEmployeesV2, s.endpointEmployeesQuery).Methods(http.MethodGet)
	s.Router.HandleFunc(data.RouteEmployeesId, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			s.endpointEmployeeRead(w, r)
		case http.MethodPut:
			s.endpointEmployeeReplace(w, r)
		case http.MethodDelete:
			s.endpointEmployeeDelete(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteCache, s.endpointCacheClear).Methods(http.MethodDelete)
	s.Router.HandleFunc(data.RouteHealth, s.endpointHealth).Methods(http.MethodGet)
	s.Router.Handle(data.RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
}

func (s *service) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	s.config.port = "8080"
	if port, ok := envs["SERVICE_PORT"]; ok && port != "" {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; allowedOrigins != "" {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods := envs["SERVICE_CORS_ALLOWED_METHODS"]; allowedMethods != "" {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders := envs["SERVICE_CORS_ALLOWED_HEADERS"]; allowedHeaders != "" {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	s.handler = s.Router
	if !s.config.corsDisabled {
		s.handler = cors.New(cors.Options{
			AllowedOrigins:   s.config.allowedOrigins,
			AllowCredentials: s.config.allowCredentials,
			AllowedMethods:   s.config.allowedMethods,
			AllowedHeaders:   s.config.allowedHeaders,
			ExposedHeaders:   s.config.exposedHeaders,
			Debug:            s.config.corsDebug,
		}).Handler(s.Router)
	}
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.Logic == nil {
		return errors.New("logic not provided")
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Server.Addr = net.JoinHostPort(s.config.address, s.config.port)
	if err := s.launchServer(); err != nil {
		s.cancel()
		return err
	}
	return nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.cancel == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	s.cancel()
	s.Wait()
	s.cancel = nil
	return nil
}
