// Package query implements the in-memory search, sort and paginate pipeline
// that runs over a snapshot of the employees.
package query

import "github.com/antonio-alexander/go-blog-hateoas/internal/data"

// Execute filters, then sorts, then paginates; sorting only ever sees
// filtered employees and paging only ever sees sorted ones
func Execute(snapshot []*data.Employee, query data.EmployeeQuery) (*Page, error) {
	employees := Filter(snapshot, query.Search)
	employees, err := Sort(employees, query.Sort)
	if err != nil {
		return nil, err
	}
	return Paginate(employees, query.Size, query.Page)
}
