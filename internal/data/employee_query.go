package data

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	FieldName        string = "name"
	FieldSurname     string = "surname"
	FieldPhoneCode   string = "phoneCode"
	FieldPhoneNumber string = "phoneNumber"
)

const (
	DefaultPageSize int = 10
	DefaultPage     int = 1
)

type SortDirection string

const (
	SortAscending  SortDirection = "ASC"
	SortDescending SortDirection = "DESC"
)

// ParseSortDirection returns descending only when asked for explicitly,
// anything else (including empty) is ascending
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(s, string(SortDescending)) {
		return SortDescending
	}
	return SortAscending
}

type Sort struct {
	Field     string        `json:"field,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

type Pagination struct {
	Size int `json:"size"`
	Page int `json:"page"`
}

// EmployeeQuery is the combined search, sort and paginate request
type EmployeeQuery struct {
	Search string `json:"search,omitempty"`
	Sort
	Pagination
}

func NewEmployeeQuery() EmployeeQuery {
	return EmployeeQuery{
		Sort:       Sort{Direction: SortAscending},
		Pagination: Pagination{Size: DefaultPageSize, Page: DefaultPage},
	}
}

func (s *Sort) ToParams() url.Values {
	params := make(url.Values)
	if s.Field != "" {
		params.Set(ParameterField, s.Field)
	}
	if s.Direction != "" {
		params.Set(ParameterDirection, string(s.Direction))
	}
	return params
}

func (s *Sort) FromParams(params url.Values) {
	s.Field = params.Get(ParameterField)
	s.Direction = ParseSortDirection(params.Get(ParameterDirection))
}

func (p *Pagination) ToParams() url.Values {
	params := make(url.Values)
	params.Set(ParameterSize, strconv.Itoa(p.Size))
	params.Set(ParameterPage, strconv.Itoa(p.Page))
	return params
}

// FromParams reads size and page, keeping the current values when
// a parameter is absent
func (p *Pagination) FromParams(params url.Values) error {
	if s := params.Get(ParameterSize); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			return NewValidationError(ParameterSize, s, "not an integer")
		}
		p.Size = size
	}
	if s := params.Get(ParameterPage); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil {
			return NewValidationError(ParameterPage, s, "not an integer")
		}
		p.Page = page
	}
	return nil
}

func (e *EmployeeQuery) ToParams() url.Values {
	params := make(url.Values)
	if e.Search != "" {
		params.Set(ParameterSearch, e.Search)
	}
	for key, values := range e.Sort.ToParams() {
		params[key] = values
	}
	for key, values := range e.Pagination.ToParams() {
		params[key] = values
	}
	return params
}

func (e *EmployeeQuery) FromParams(params url.Values) error {
	e.Search = params.Get(ParameterSearch)
	e.Sort.FromParams(params)
	return e.Pagination.FromParams(params)
}
