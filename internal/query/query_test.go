package query_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/antonio-alexander/go-blog-hateoas/internal/data"
	"github.com/antonio-alexander/go-blog-hateoas/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() []*data.Employee {
	var employees []*data.Employee

	for i, employee := range data.SeedEmployees() {
		employee.ID = int64(i + 1)
		employees = append(employees, &employee)
	}
	return employees
}

func ids(employees []*data.Employee) []int64 {
	ids := make([]int64, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}
	return ids
}

func numbered(n int) []*data.Employee {
	employees := make([]*data.Employee, 0, n)
	for i := 0; i < n; i++ {
		employees = append(employees, &data.Employee{
			ID:        int64(i + 1),
			Name:      fmt.Sprintf("employee-%02d", i),
			PhoneCode: fmt.Sprint(i),
		})
	}
	return employees
}

func TestFilter(t *testing.T) {
	employees := seed()

	t.Run("Empty", func(t *testing.T) {
		filtered := query.Filter(employees, "")
		assert.Equal(t, employees, filtered)
		assert.NotSame(t, &employees[0], &filtered[0])
	})
	t.Run("Case Insensitive", func(t *testing.T) {
		filtered := query.Filter(employees, "BAGGINS")
		assert.Equal(t, []int64{1, 2}, ids(filtered))
	})
	t.Run("Phone Fields", func(t *testing.T) {
		// phone code 673 (Legolas, Gimli) and no phone number contains 673
		filtered := query.Filter(employees, "673")
		assert.Equal(t, []int64{5, 7}, ids(filtered))
		filtered = query.Filter(employees, "72827")
		assert.Equal(t, []int64{2}, ids(filtered))
	})
	t.Run("Role Excluded", func(t *testing.T) {
		filtered := query.Filter(employees, "wizard")
		assert.Empty(t, filtered)
	})
	t.Run("Empty Fields", func(t *testing.T) {
		employees := []*data.Employee{{ID: 1}, {ID: 2, Name: "Aragorn"}}
		assert.Equal(t, []int64{2}, ids(query.Filter(employees, "ara")))
		assert.Equal(t, []int64{1, 2}, ids(query.Filter(employees, "")))
	})
	t.Run("Unicode", func(t *testing.T) {
		filtered := query.Filter(employees, "éo")
		assert.Equal(t, []int64{12, 13, 15}, ids(filtered))
	})
}

func TestSort(t *testing.T) {
	t.Run("Numeric Phone Code", func(t *testing.T) {
		employees := []*data.Employee{
			{ID: 1, PhoneCode: "2"},
			{ID: 2, PhoneCode: "10"},
			{ID: 3, PhoneCode: "1"},
		}
		sorted, err := query.Sort(employees, data.Sort{Field: data.FieldPhoneCode})
		require.Nil(t, err)
		assert.Equal(t, []int64{3, 1, 2}, ids(sorted))
		// input isn't modified
		assert.Equal(t, []int64{1, 2, 3}, ids(employees))

		sorted, err = query.Sort(employees, data.Sort{Field: data.FieldPhoneCode,
			Direction: "desc"})
		require.Nil(t, err)
		assert.Equal(t, []int64{2, 1, 3}, ids(sorted))
	})
	t.Run("Text Is Byte Ordered", func(t *testing.T) {
		employees := []*data.Employee{
			{ID: 1, PhoneNumber: "2"},
			{ID: 2, PhoneNumber: "10"},
			{ID: 3, Name: "b"},
		}
		sorted, err := query.Sort(employees, data.Sort{Field: data.FieldPhoneNumber})
		require.Nil(t, err)
		assert.Equal(t, []int64{3, 2, 1}, ids(sorted))

		employees = []*data.Employee{{ID: 1, Name: "b"}, {ID: 2, Name: "B"}, {ID: 3, Name: "a"}}
		sorted, err = query.Sort(employees, data.Sort{Field: data.FieldName})
		require.Nil(t, err)
		assert.Equal(t, []int64{2, 3, 1}, ids(sorted))
	})
	t.Run("Stable", func(t *testing.T) {
		employees := seed()
		sorted, err := query.Sort(employees, data.Sort{Field: data.FieldSurname})
		require.Nil(t, err)
		// employees without a surname keep their relative order
		assert.Equal(t, []int64{6, 7, 8, 11, 12, 13, 15, 17, 18, 19}, ids(sorted[:10]))
		assert.Equal(t, []int64{1, 2}, ids(sorted[10:12]))

		sorted, err = query.Sort(employees, data.Sort{Field: data.FieldPhoneCode,
			Direction: data.SortDescending})
		require.Nil(t, err)
		// 998, 673 (Legolas, Gimli in input order), 255, 94, 93, 86 (Arwen, Théoden)
		assert.Equal(t, []int64{2, 5, 7, 20, 3, 1, 14, 15}, ids(sorted[:8]))
	})
	t.Run("Unknown Field", func(t *testing.T) {
		employees := seed()
		for _, field := range []string{"", "role", "id", "NAME"} {
			sorted, err := query.Sort(employees, data.Sort{Field: field})
			require.Nil(t, err)
			assert.Equal(t, ids(employees), ids(sorted))
		}
	})
	t.Run("Invalid Phone Code", func(t *testing.T) {
		employees := []*data.Employee{
			{ID: 1, PhoneCode: "2"},
			{ID: 2, PhoneCode: "4a"},
			{ID: 3, PhoneCode: ""},
		}
		sorted, err := query.Sort(employees, data.Sort{Field: data.FieldPhoneCode})
		assert.Nil(t, sorted)
		assert.True(t, data.IsValidationError(err))
		assert.Contains(t, err.Error(), "4a")

		// text sort doesn't care about phone codes
		_, err = query.Sort(employees, data.Sort{Field: data.FieldName})
		assert.Nil(t, err)
	})
}

func TestPaginate(t *testing.T) {
	employees := numbered(25)

	for _, c := range []struct {
		page          int
		expectedIds   []int64
		expectedPage  int
		expectedCount int
	}{
		{page: 1, expectedIds: ids(employees[0:10]), expectedPage: 1, expectedCount: 10},
		{page: 3, expectedIds: ids(employees[20:25]), expectedPage: 3, expectedCount: 5},
		{page: 4, expectedIds: []int64{}, expectedPage: 4},
		{page: 0, expectedIds: ids(employees[0:10]), expectedPage: 1, expectedCount: 10},
		{page: -5, expectedIds: ids(employees[0:10]), expectedPage: 1, expectedCount: 10},
	} {
		page, err := query.Paginate(employees, 10, c.page)
		require.Nil(t, err)
		assert.Equal(t, c.expectedIds, ids(page.Employees), "page %d", c.page)
		assert.Len(t, page.Employees, c.expectedCount)
		assert.Equal(t, c.expectedPage, page.Number)
		assert.Equal(t, 25, page.TotalElements)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 10, page.Size)
	}

	page, err := query.Paginate(nil, 10, 1)
	require.Nil(t, err)
	assert.Empty(t, page.Employees)
	assert.Equal(t, 0, page.TotalPages)

	page, err = query.Paginate(employees, 5, 1)
	require.Nil(t, err)
	assert.Equal(t, 5, page.TotalPages)

	_, err = query.Paginate(employees, 0, 1)
	assert.True(t, data.IsValidationError(err))

	// sizes and pages far beyond the collection don't overflow
	for _, c := range []struct {
		size          int
		page          int
		expectedIds   []int64
		expectedPages int
	}{
		{size: math.MaxInt, page: 1, expectedIds: ids(employees), expectedPages: 1},
		{size: math.MaxInt, page: 2, expectedIds: []int64{}, expectedPages: 1},
		{size: 1 << 40, page: 1, expectedIds: ids(employees), expectedPages: 1},
		{size: 1 << 62, page: 3, expectedIds: []int64{}, expectedPages: 1},
		{size: 3, page: 1 << 62, expectedIds: []int64{}, expectedPages: 9},
		{size: 3, page: math.MaxInt, expectedIds: []int64{}, expectedPages: 9},
	} {
		page, err := query.Paginate(employees, c.size, c.page)
		require.Nil(t, err)
		assert.Equal(t, c.expectedIds, ids(page.Employees), "size %d, page %d", c.size, c.page)
		assert.Equal(t, c.expectedPages, page.TotalPages, "size %d, page %d", c.size, c.page)
		assert.Equal(t, c.page, page.Number)
		assert.Equal(t, 25, page.TotalElements)
	}
}

func TestExecute(t *testing.T) {
	t.Run("Filter Before Sort Before Page", func(t *testing.T) {
		// sorting everything by phone code first would put the
		// unfiltered phone code 1 (Aragorn, Gollum) on page one
		q := data.NewEmployeeQuery()
		q.Search = "b"
		q.Field = data.FieldPhoneCode
		q.Size = 2
		page, err := query.Execute(seed(), q)
		require.Nil(t, err)
		// Boromir 51, Meriadoc 51, Bilbo 93, Tom 255, Frodo 998
		assert.Equal(t, []int64{8, 9}, ids(page.Employees))
		assert.Equal(t, 5, page.TotalElements)
		assert.Equal(t, 3, page.TotalPages)

		q.Page = 3
		page, err = query.Execute(seed(), q)
		require.Nil(t, err)
		assert.Equal(t, []int64{2}, ids(page.Employees))
	})
	t.Run("Filter Skips Invalid Phone Codes", func(t *testing.T) {
		employees := append(seed(), &data.Employee{ID: 99, Name: "Nobody", PhoneCode: "n/a"})
		q := data.NewEmployeeQuery()
		q.Field = data.FieldPhoneCode
		_, err := query.Execute(employees, q)
		assert.True(t, data.IsValidationError(err))

		q.Search = "baggins"
		page, err := query.Execute(employees, q)
		require.Nil(t, err)
		assert.Equal(t, []int64{1, 2}, ids(page.Employees))
	})
	t.Run("Defaults", func(t *testing.T) {
		page, err := query.Execute(seed(), data.NewEmployeeQuery())
		require.Nil(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids(page.Employees))
		assert.Equal(t, 20, page.TotalElements)
		assert.Equal(t, 2, page.TotalPages)
	})
}
