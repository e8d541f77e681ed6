package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// EnvsFromOs converts os.Environ() into a map, values containing
// an equal sign are kept intact
func EnvsFromOs() map[string]string {
	envs := make(map[string]string)
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	return envs
}

// EnvsFromFile reads a yaml, json or dotenv file and merges its keys into
// envs; nested keys are flattened (database.host => DATABASE_HOST) and
// values already present in envs take precedence
func EnvsFromFile(configFile string, envs map[string]string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "unable to read config file %s", configFile)
	}
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, ok := envs[envKey]; ok {
			continue
		}
		envs[envKey] = v.GetString(key)
	}
	return nil
}

// StatusError is returned by DoRequest for any response other than a
// 200, 201 or 204; Message is the body's error (or the body itself)
type StatusError struct {
	StatusCode int
	Message    string
}

func (s *StatusError) Error() string {
	if s.Message == "" {
		return fmt.Sprintf("%d %s", s.StatusCode, http.StatusText(s.StatusCode))
	}
	return fmt.Sprintf("%d %s: %s", s.StatusCode, http.StatusText(s.StatusCode), s.Message)
}

func DoRequest(ctx context.Context, client *http.Client, uri, method string, input interface{}, v ...interface{}) ([]byte, error) {
	var byts []byte
	var err error

	switch v := input.(type) {
	default:
		if byts, err = json.Marshal(input); err != nil {
			return nil, err
		}
	case nil:
	case url.Values:
		if len(v) > 0 {
			uri += "?" + v.Encode()
		}
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, bytes.NewBuffer(byts))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	if correlationId := CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Set(data.HeaderCorrelationId, correlationId)
	}
	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	switch response.StatusCode {
	default:
		e := &data.Error{}
		byts, _ = io.ReadAll(response.Body)
		if err := json.Unmarshal(byts, e); err != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(byts))
		}
		return nil, &StatusError{StatusCode: response.StatusCode, Message: e.Error}
	case http.StatusNoContent:
		return []byte{}, nil
	case http.StatusOK, http.StatusCreated:
		bytes, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return bytes, json.Unmarshal(bytes, v[0])
		}
		return bytes, nil
	}
}
