package query

import (
	"strconv"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
)

type Page struct {
	Employees     []*data.Employee
	Size          int
	Number        int //1-based
	TotalElements int
	TotalPages    int
}

// Paginate slices out the 1-based page of the given size; pages below one
// are treated as the first page and pages past the end are empty. Nothing is
// allocated beyond the employees actually returned, so size and page can be
// arbitrarily large without overflowing
func Paginate(employees []*data.Employee, size, page int) (*Page, error) {
	if size < 1 {
		return nil, data.NewValidationError(data.ParameterSize, strconv.Itoa(size),
			"page size must be at least 1")
	}
	page = max(page, 1)
	total := len(employees)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	items := []*data.Employee{}
	//KIM: compare page numbers rather than offsets, (page-1)*size can overflow
	if page <= totalPages {
		start := (page - 1) * size
		end := start + min(size, total-start)
		items = append(make([]*data.Employee, 0, end-start), employees[start:end]...)
	}
	return &Page{
		Employees:     items,
		Size:          size,
		Number:        page,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}
