package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	hashKeyEmployees string = "employees"
	keySnapshot      string = "employees_snapshot"
	defaultTimeout          = 10 * time.Second
)

type redisCache struct {
	redisClient *redis.Client
	config      struct {
		address  string
		port     string
		password string
		database int
		timeout  time.Duration
	}
	utilities.Logger
}

func NewRedis(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &redisCache{}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	if c.Logger == nil {
		c.Logger = utilities.NewLogger()
	}
	return c
}

func (c *redisCache) Configure(envs map[string]string) error {
	c.config.address, c.config.port = "localhost", "6379"
	c.config.timeout = defaultTimeout
	if redisAddress, ok := envs["REDIS_ADDRESS"]; ok {
		c.config.address = redisAddress
	}
	if redisPort, ok := envs["REDIS_PORT"]; ok {
		c.config.port = redisPort
	}
	if redisPassword, ok := envs["REDIS_PASSWORD"]; ok {
		c.config.password = redisPassword
	}
	if redisDatabase, ok := envs["REDIS_DATABASE"]; ok {
		i, _ := strconv.ParseInt(redisDatabase, 10, 64)
		c.config.database = int(i)
	}
	if redisTimeout, ok := envs["REDIS_TIMEOUT"]; ok {
		if i, _ := strconv.ParseInt(redisTimeout, 10, 64); i > 0 {
			c.config.timeout = time.Duration(i) * time.Second
		}
	}
	return nil
}

func (c *redisCache) Open(ctx context.Context) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.config.address, c.config.port),
		Password: c.config.password,
		DB:       c.config.database,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return errors.Wrap(err, "unable to ping redis")
	}
	c.redisClient = redisClient
	return nil
}

func (c *redisCache) Close(ctx context.Context) error {
	if c.redisClient == nil {
		return nil
	}
	if err := c.redisClient.Close(); err != nil {
		c.Error(ctx, "error while shutting down redis client: %s", err)
	}
	return nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	if _, err := c.redisClient.Del(ctx, hashKeyEmployees, keySnapshot).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	value, err := c.redisClient.HGet(ctx, hashKeyEmployees, fmt.Sprint(id)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrEmployeeNotCached
	case err != nil:
		return nil, err
	}
	employee := &data.Employee{}
	if err := employee.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	return employee, nil
}

func (c *redisCache) EmployeeWrite(ctx context.Context, employee *data.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	bytes, err := employee.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKeyEmployees, fmt.Sprint(employee.ID), string(bytes))
		pipe.Del(ctx, keySnapshot)
		return nil
	})
	return err
}

func (c *redisCache) EmployeesReadAll(ctx context.Context) ([]*data.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	value, err := c.redisClient.Get(ctx, keySnapshot).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrEmployeesNotCached
	case err != nil:
		return nil, err
	}
	var ids employeeIds
	if err := ids.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	employees := make([]*data.Employee, 0, len(ids))
	if len(ids) == 0 {
		return employees, nil
	}
	fields := make([]string, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, fmt.Sprint(id))
	}
	values, err := c.redisClient.HMGet(ctx, hashKeyEmployees, fields...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			//KIM: a partially evicted snapshot is useless, drop it so
			// the next read goes to the store
			c.Trace(ctx, "snapshot references uncached employee %s", fields[i])
			if err := c.redisClient.Del(ctx, keySnapshot).Err(); err != nil {
				c.Error(ctx, "error while deleting snapshot: %s", err)
			}
			return nil, ErrEmployeesNotCached
		}
		employee := &data.Employee{}
		if err := employee.UnmarshalBinary([]byte(s)); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, nil
}

func (c *redisCache) EmployeesWriteAll(ctx context.Context, employees []*data.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	ids := make(employeeIds, 0, len(employees))
	values := make([]any, 0, 2*len(employees))
	for _, employee := range employees {
		bytes, err := employee.MarshalBinary()
		if err != nil {
			return err
		}
		values = append(values, fmt.Sprint(employee.ID), string(bytes))
		ids = append(ids, employee.ID)
	}
	snapshot, _ := ids.MarshalBinary()
	_, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, hashKeyEmployees, values...)
		}
		pipe.Set(ctx, keySnapshot, string(snapshot), 0)
		return nil
	})
	return err
}

func (c *redisCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()

	fields := make([]string, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, fmt.Sprint(id))
	}
	_, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(fields) > 0 {
			pipe.HDel(ctx, hashKeyEmployees, fields...)
		}
		pipe.Del(ctx, keySnapshot)
		return nil
	})
	return err
}
