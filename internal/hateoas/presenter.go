// Package hateoas wraps employees and pages of employees with the links a
// client needs to navigate them.
package hateoas

import (
	"net/url"
	"strconv"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/query"
)

type Presenter struct {
	base string
}

// NewPresenter creates a presenter whose links are prefixed with base
// (e.g. http://localhost:8080), an empty base produces relative links
func NewPresenter(base string) *Presenter {
	return &Presenter{base: base}
}

func (p *Presenter) href(route string, pathValues map[string]string, params url.Values) data.Link {
	return data.Link{Href: Href(p.base, route, pathValues, params)}
}

// EmployeeHref is the canonical address of an employee
func (p *Presenter) EmployeeHref(id int64) string {
	return Href(p.base, data.RouteEmployeesId,
		map[string]string{data.PathId: strconv.FormatInt(id, 10)}, nil)
}

func (p *Presenter) Employee(employee *data.Employee) *data.EmployeeModel {
	return &data.EmployeeModel{
		Employee: *employee,
		Links: data.Links{
			data.RelSelf:      data.Link{Href: p.EmployeeHref(employee.ID)},
			data.RelEmployees: p.href(data.RouteEmployees, nil, nil),
		},
	}
}

// Employees presents a collection whose self link is route with params
func (p *Presenter) Employees(employees []*data.Employee, route string, params url.Values) *data.EmployeesModel {
	models := make([]*data.EmployeeModel, 0, len(employees))
	for _, employee := range employees {
		models = append(models, p.Employee(employee))
	}
	return &data.EmployeesModel{
		Embedded: data.EmployeesEmbedded{Employees: models},
		Links: data.Links{
			data.RelSelf: p.href(route, nil, params),
		},
	}
}

// Page presents a page of employees; next, prev and last carry the same
// search and sort as the request so paging through them is stable
func (p *Presenter) Page(page *query.Page, route string, q data.EmployeeQuery) *data.EmployeesModel {
	pageFx := func(number int) data.Link {
		q.Size, q.Page = page.Size, number
		return p.href(route, nil, q.ToParams())
	}
	model := p.Employees(page.Employees, route, nil)
	model.Links[data.RelSelf] = pageFx(page.Number)
	if page.Number < page.TotalPages {
		model.Links[data.RelNext] = pageFx(page.Number + 1)
	}
	if page.Number > 1 {
		model.Links[data.RelPrev] = pageFx(page.Number - 1)
	}
	model.Links[data.RelLast] = pageFx(max(page.TotalPages, 1))
	model.Page = &data.PageMetadata{
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		Number:        page.Number,
	}
	return model
}
