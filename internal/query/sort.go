package query

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
)

// Sort returns a stably sorted copy of employees. Text fields are compared
// byte-wise, phone codes are compared as integers; a phone code that isn't an
// integer fails the whole sort. An unknown field leaves the order untouched.
func Sort(employees []*data.Employee, sort data.Sort) ([]*data.Employee, error) {
	var compare func(a, b *data.Employee) int

	sorted := slices.Clone(employees)
	switch sort.Field {
	default:
		return sorted, nil
	case data.FieldName:
		compare = compareText(func(e *data.Employee) string { return e.Name })
	case data.FieldSurname:
		compare = compareText(func(e *data.Employee) string { return e.Surname })
	case data.FieldPhoneNumber:
		compare = compareText(func(e *data.Employee) string { return e.PhoneNumber })
	case data.FieldPhoneCode:
		phoneCodes, err := parsePhoneCodes(employees)
		if err != nil {
			return nil, err
		}
		compare = func(a, b *data.Employee) int {
			return cmp.Compare(phoneCodes[a], phoneCodes[b])
		}
	}
	if data.ParseSortDirection(string(sort.Direction)) == data.SortDescending {
		ascending := compare
		compare = func(a, b *data.Employee) int { return ascending(b, a) }
	}
	slices.SortStableFunc(sorted, compare)
	return sorted, nil
}

func compareText(value func(*data.Employee) string) func(a, b *data.Employee) int {
	return func(a, b *data.Employee) int {
		return strings.Compare(value(a), value(b))
	}
}

// parsePhoneCodes parses every phone code up front so a bad value is
// reported regardless of where the comparisons would have reached it
func parsePhoneCodes(employees []*data.Employee) (map[*data.Employee]int64, error) {
	phoneCodes := make(map[*data.Employee]int64, len(employees))
	for _, employee := range employees {
		phoneCode, err := strconv.ParseInt(employee.PhoneCode, 10, 64)
		if err != nil {
			return nil, data.NewValidationError(data.FieldPhoneCode, employee.PhoneCode,
				"employee %d: phone code must be an integer to sort numerically", employee.ID)
		}
		phoneCodes[employee] = phoneCode
	}
	return phoneCodes, nil
}
