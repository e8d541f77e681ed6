package cache

import (
	"context"
	"fmt"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

const keyStashSnapshot string = "employees"

type stashCache struct {
	utilities.Logger
	stash interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
}

// NewStash adapts a go-stash implementation (memory or redis) to Cache, the
// stash must be provided as a parameter
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.Logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.Logger == nil {
		c.Logger = utilities.NewLogger()
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func employeeKey(id int64) string {
	return fmt.Sprintf("employee_%d", id)
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Initialize()
	}
	return nil
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	return c.Stasher.Clear()
}

func (c *stashCache) evictSnapshot(ctx context.Context) {
	if err := c.Stasher.Delete(keyStashSnapshot); err != nil {
		c.Trace(ctx, "snapshot not evicted: %s", err)
	}
}

func (c *stashCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	employee := &data.Employee{}
	if err := c.Stasher.Read(employeeKey(id), employee); err != nil {
		c.Trace(ctx, "cache miss for employee %d: %s", id, err)
		return nil, ErrEmployeeNotCached
	}
	c.Trace(ctx, "cache hit for employee: %d", id)
	return employee, nil
}

func (c *stashCache) EmployeeWrite(ctx context.Context, employee *data.Employee) error {
	c.evictSnapshot(ctx)
	if _, err := c.Stasher.Write(employeeKey(employee.ID), employee); err != nil {
		c.Error(ctx, "error while writing employee (%d): %s", employee.ID, err)
		return err
	}
	c.Trace(ctx, "cached employee: %d", employee.ID)
	return nil
}

func (c *stashCache) EmployeesReadAll(ctx context.Context) ([]*data.Employee, error) {
	var ids employeeIds

	if err := c.Stasher.Read(keyStashSnapshot, &ids); err != nil {
		c.Trace(ctx, "cache miss for employees snapshot: %s", err)
		return nil, ErrEmployeesNotCached
	}
	employees := make([]*data.Employee, 0, len(ids))
	for _, id := range ids {
		employee := &data.Employee{}
		if err := c.Stasher.Read(employeeKey(id), employee); err != nil {
			//KIM: we don't want to return half a snapshot, so a missing
			// employee invalidates it
			c.Trace(ctx, "snapshot references uncached employee %d", id)
			c.evictSnapshot(ctx)
			return nil, ErrEmployeesNotCached
		}
		employees = append(employees, employee)
	}
	c.Trace(ctx, "cache hit for employees snapshot")
	return employees, nil
}

func (c *stashCache) EmployeesWriteAll(ctx context.Context, employees []*data.Employee) error {
	ids := make(employeeIds, 0, len(employees))
	for _, employee := range employees {
		if _, err := c.Stasher.Write(employeeKey(employee.ID), employee); err != nil {
			c.Error(ctx, "error while writing employee (%d): %s", employee.ID, err)
			return err
		}
		ids = append(ids, employee.ID)
	}
	if _, err := c.Stasher.Write(keyStashSnapshot, &ids); err != nil {
		c.Error(ctx, "error while writing employees snapshot: %s", err)
		return err
	}
	c.Trace(ctx, "cached employees snapshot (%d)", len(ids))
	return nil
}

func (c *stashCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.evictSnapshot(ctx)
	for _, id := range ids {
		if err := c.Stasher.Delete(employeeKey(id)); err != nil {
			c.Trace(ctx, "employee %d not evicted: %s", id, err)
			continue
		}
		c.Trace(ctx, "evicted cached employee: %d", id)
	}
	return nil
}
