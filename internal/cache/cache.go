package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"

	"github.com/pkg/errors"
)

var (
	ErrEmployeeNotCached  = errors.New("employee not cached")
	ErrEmployeesNotCached = errors.New("employees not cached")
)

// Cache holds individual employees and the full snapshot; writing or
// deleting a single employee always invalidates the snapshot
type Cache interface {
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeWrite(ctx context.Context, employee *data.Employee) error
	EmployeesReadAll(ctx context.Context) ([]*data.Employee, error)
	EmployeesWriteAll(ctx context.Context, employees []*data.Employee) error
	EmployeesDelete(ctx context.Context, ids ...int64) error
}

func copyEmployee(e *data.Employee) *data.Employee {
	employee := &data.Employee{}
	*employee = *e
	return employee
}

// employeeIds is the ordered id list of a cached snapshot
type employeeIds []int64

func (e *employeeIds) MarshalBinary() ([]byte, error) {
	s := make([]string, 0, len(*e))
	for _, id := range *e {
		s = append(s, strconv.FormatInt(id, 10))
	}
	return []byte(strings.Join(s, ",")), nil
}

func (e *employeeIds) UnmarshalBinary(bytes []byte) error {
	*e = (*e)[:0]
	if len(bytes) == 0 {
		return nil
	}
	for _, s := range strings.Split(string(bytes), ",") {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid employee id %q", s)
		}
		*e = append(*e, id)
	}
	return nil
}
