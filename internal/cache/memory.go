package cache

import (
	"context"
	"sync"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"
)

type memoryCache struct {
	sync.RWMutex
	employees map[int64]*data.Employee //map[id]employee
	snapshot  employeeIds              //nil when not cached
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		employees: make(map[int64]*data.Employee),
	}
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

func (c *memoryCache) Configure(envs map[string]string) error {
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*data.Employee)
	c.snapshot = nil
	return nil
}

func (c *memoryCache) Close(ctx context.Context) error {
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*data.Employee)
	c.snapshot = nil
	c.Trace(ctx, "cleared memory cache")
	return nil
}

func (c *memoryCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	employee, ok := c.employees[id]
	if !ok {
		return nil, ErrEmployeeNotCached
	}
	return copyEmployee(employee), nil
}

func (c *memoryCache) EmployeeWrite(ctx context.Context, employee *data.Employee) error {
	c.Lock()
	defer c.Unlock()

	c.employees[employee.ID] = copyEmployee(employee)
	c.snapshot = nil
	return nil
}

func (c *memoryCache) EmployeesReadAll(ctx context.Context) ([]*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	if c.snapshot == nil {
		return nil, ErrEmployeesNotCached
	}
	employees := make([]*data.Employee, 0, len(c.snapshot))
	for _, id := range c.snapshot {
		employee, ok := c.employees[id]
		if !ok {
			return nil, ErrEmployeesNotCached
		}
		employees = append(employees, copyEmployee(employee))
	}
	return employees, nil
}

func (c *memoryCache) EmployeesWriteAll(ctx context.Context, employees []*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	snapshot := make(employeeIds, 0, len(employees))
	for _, employee := range employees {
		c.employees[employee.ID] = copyEmployee(employee)
		snapshot = append(snapshot, employee.ID)
	}
	c.snapshot = snapshot
	return nil
}

func (c *memoryCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.Lock()
	defer c.Unlock()

	for _, id := range ids {
		delete(c.employees, id)
	}
	c.snapshot = nil
	return nil
}
