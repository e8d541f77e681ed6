package data

const (
	RouteEmployees         string = "/employees"
	RouteEmployeesSearch   string = RouteEmployees + "/search"
	RouteEmployeesSort     string = RouteEmployees + "/sort"
	RouteEmployeesPaginate string = RouteEmployees + "/paginate"
	RouteEmployeesV2       string = RouteEmployees + "/v2"
	RouteEmployeesId       string = RouteEmployees + "/{" + PathId + "}"
	RouteEmployeesIdf      string = RouteEmployees + "/%d"
	RouteCache             string = "/cache"
	RouteMetrics           string = "/metrics"
	RouteHealth            string = "/health"
)

const PathId string = "id"

const (
	ParameterSearch    string = "search"
	ParameterField     string = "field"
	ParameterDirection string = "direction"
	ParameterSize      string = "size"
	ParameterPage      string = "page"
)

const (
	RelSelf      string = "self"
	RelNext      string = "next"
	RelPrev      string = "prev"
	RelLast      string = "last"
	RelEmployees string = "employees"
)

const (
	ContentTypeHal  string = "application/hal+json"
	ContentTypeJson string = "application/json; charset=utf-8"
	ContentTypeText string = "text/plain; charset=utf-8"
)

const HeaderCorrelationId string = "Correlation-Id"

type Link struct {
	Href string `json:"href"`
}

type Links map[string]Link

// EmployeeModel is an employee with its hypermedia links, the employee
// fields are flattened alongside _links
type EmployeeModel struct {
	Employee
	Links Links `json:"_links"`
}

type EmployeesEmbedded struct {
	Employees []*EmployeeModel `json:"employees"`
}

type PageMetadata struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

type EmployeesModel struct {
	Embedded EmployeesEmbedded `json:"_embedded"`
	Links    Links             `json:"_links"`
	Page     *PageMetadata     `json:"page,omitempty"`
}

// Employees returns the employees without their links
func (e *EmployeesModel) Employees() []*Employee {
	employees := make([]*Employee, 0, len(e.Embedded.Employees))
	for _, model := range e.Embedded.Employees {
		employee := model.Employee
		employees = append(employees, &employee)
	}
	return employees
}

type Error struct {
	Error string `json:"error"`
}
