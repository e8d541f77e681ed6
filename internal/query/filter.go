package query

import (
	"strings"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
)

// Filter returns the employees where search is a case-insensitive substring
// of the name, surname, phone code or phone number (role isn't searched). An
// empty search returns every employee in its original order.
func Filter(employees []*data.Employee, search string) []*data.Employee {
	filtered := make([]*data.Employee, 0, len(employees))
	if search == "" {
		return append(filtered, employees...)
	}
	search = strings.ToLower(search)
	for _, employee := range employees {
		if matches(employee, search) {
			filtered = append(filtered, employee)
		}
	}
	return filtered
}

func matches(employee *data.Employee, search string) bool {
	for _, field := range []string{
		employee.Name,
		employee.Surname,
		employee.PhoneCode,
		employee.PhoneNumber,
	} {
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
