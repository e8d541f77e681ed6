package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/hateoas"

	"github.com/pkg/errors"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

func getCorrelationId(request *http.Request) string {
	if correlationId := request.Header.Get(data.HeaderCorrelationId); correlationId != "" {
		return correlationId
	}
	return internal.GenerateId()
}

// presenter builds absolute links from the address the request was sent to
func presenter(request *http.Request) *hateoas.Presenter {
	scheme := "http"
	if request.TLS != nil {
		scheme = "https"
	}
	if forwarded := request.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return hateoas.NewPresenter(scheme + "://" + request.Host)
}

func idFromPath(pathVariables map[string]string) (int64, error) {
	s := pathVariables[data.PathId]
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, data.NewValidationError(data.PathId, s, "not an integer")
	}
	return id, nil
}

func employeeFromBody(request *http.Request) (*data.Employee, error) {
	employee := &data.Employee{}
	defer request.Body.Close()
	if err := json.NewDecoder(request.Body).Decode(employee); err != nil {
		return nil, data.NewValidationError("body", "", "%s", err)
	}
	return employee, nil
}

func errorStatusCode(err error) int {
	switch {
	default:
		return http.StatusInternalServerError
	case errors.Is(err, data.ErrEmployeeNotFound):
		return http.StatusNotFound
	case data.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrMutationDisabled):
		return http.StatusForbidden
	}
}

// handleResponse writes err as a json error, a string item as text and
// anything else as hal+json with statusCode
func (s *service) handleResponse(ctx context.Context, writer http.ResponseWriter, err error, statusCode int, item interface{}) {
	var bytes []byte

	contentType := data.ContentTypeHal
	if err == nil {
		switch v := item.(type) {
		default:
			bytes, err = json.Marshal(item)
		case string:
			contentType, bytes = data.ContentTypeText, []byte(v)
		}
	}
	if err != nil {
		statusCode = errorStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			s.Error(ctx, "error while handling request: %s", err)
		}
		contentType = data.ContentTypeJson
		if bytes, err = json.Marshal(&data.Error{Error: err.Error()}); err != nil {
			s.Error(ctx, "error handling response: %s", err)
			return
		}
	}
	writer.Header().Set("Content-Type", contentType)
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(bytes); err != nil {
		s.Error(ctx, "error handling response: %s", err)
	}
}
