package odoo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// HROps exposes human resources operations.
type HROps struct {
	conn Conn
	now  func() time.Time
}

func NewHROps(conn Conn) *HROps {
	return &HROps{conn: conn, now: time.Now}
}

// EmployeeFilter narrows SearchEmployees.
type EmployeeFilter struct {
	Name       string
	Department string
	JobTitle   string
	ManagerID  int64
	Inactive   bool
	Limit      int
}

func (o *HROps) SearchEmployees(ctx context.Context, filter EmployeeFilter) ([]Record, error) {
	domain := Domain{C("active", "=", !filter.Inactive)}

	if filter.Department != "" {
		domain = append(domain, C("department_id.name", "ilike", filter.Department))
	}
	if filter.JobTitle != "" {
		domain = append(domain, C("job_id.name", "ilike", filter.JobTitle))
	}
	if filter.ManagerID != 0 {
		domain = append(domain, C("parent_id", "=", filter.ManagerID))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	return o.conn.SearchRead(ctx, "hr.employee", domain, []string{
		"name", "work_email", "work_phone", "mobile_phone",
		"department_id", "job_id", "parent_id", "coach_id",
		"work_location_id", "company_id",
	}, &QueryOptions{Limit: limit, Order: "name asc"})
}

// EmployeeDetails returns the full employee record, with the current
// open contract attached when the payroll contract module is installed.
func (o *HROps) EmployeeDetails(ctx context.Context, employeeID int64) (Record, error) {
	records, err := o.conn.Read(ctx, "hr.employee", []int64{employeeID}, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: employee id=%d", ErrNotFound, employeeID)
	}

	employee := records[0]

	exists, err := o.conn.ModelExists(ctx, "hr.contract")
	if err != nil {
		return nil, err
	}
	if exists {
		contracts, err := o.conn.SearchRead(ctx, "hr.contract",
			Domain{C("employee_id", "=", employeeID), C("state", "=", "open")},
			[]string{"name", "wage", "date_start", "date_end", "state"},
			&QueryOptions{Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(contracts) > 0 {
			employee["current_contract"] = contracts[0]
		} else {
			employee["current_contract"] = nil
		}
	}

	return employee, nil
}

func (o *HROps) CreateEmployee(ctx context.Context, name string, jobID, departmentID int64, workEmail string, managerID int64, extra map[string]any) (Record, error) {
	values := map[string]any{
		"name":          name,
		"job_id":        jobID,
		"department_id": departmentID,
		"work_email":    workEmail,
	}
	if managerID != 0 {
		values["parent_id"] = managerID
	}
	for k, v := range extra {
		values[k] = v
	}

	id, err := o.conn.Create(ctx, "hr.employee", values)
	if err != nil {
		return nil, err
	}
	return Record{
		"id":            id,
		"name":          name,
		"job_id":        jobID,
		"department_id": departmentID,
		"work_email":    workEmail,
	}, nil
}

func (o *HROps) LeaveTypes(ctx context.Context) ([]Record, error) {
	return o.conn.SearchRead(ctx, "hr.leave.type", Domain{},
		[]string{"name", "request_unit", "allocation_type"},
		&QueryOptions{Order: "name asc"})
}

// LeaveBalance is remaining leave per type for one employee.
type LeaveBalance struct {
	Allocated float64 `json:"allocated"`
	Taken     float64 `json:"taken"`
	Remaining float64 `json:"remaining"`
}

func (o *HROps) LeaveBalances(ctx context.Context, employeeID int64) (map[string]LeaveBalance, error) {
	allocations, err := o.conn.SearchRead(ctx, "hr.leave.allocation",
		Domain{C("employee_id", "=", employeeID), C("state", "=", "validate")},
		[]string{"holiday_status_id", "number_of_days", "leaves_taken"}, nil)
	if err != nil {
		return nil, err
	}

	balances := map[string]LeaveBalance{}
	for _, alloc := range allocations {
		leaveType := alloc.Rel("holiday_status_id")
		if leaveType == "" {
			leaveType = "Unknown"
		}
		allocated := alloc.Float("number_of_days")
		taken := alloc.Float("leaves_taken")
		balances[leaveType] = LeaveBalance{
			Allocated: allocated,
			Taken:     taken,
			Remaining: allocated - taken,
		}
	}
	return balances, nil
}

func (o *HROps) CreateLeaveRequest(ctx context.Context, employeeID, leaveTypeID int64, dateFrom, dateTo, description string) (Record, error) {
	values := map[string]any{
		"employee_id":       employeeID,
		"holiday_status_id": leaveTypeID,
		"date_from":         dateFrom + " 08:00:00",
		"date_to":           dateTo + " 17:00:00",
		"request_date_from": dateFrom,
		"request_date_to":   dateTo,
	}
	if description != "" {
		values["name"] = description
	}

	id, err := o.conn.Create(ctx, "hr.leave", values)
	if err != nil {
		return nil, err
	}
	return Record{
		"id":            id,
		"employee_id":   employeeID,
		"leave_type_id": leaveTypeID,
		"date_from":     dateFrom,
		"date_to":       dateTo,
		"state":         "draft",
	}, nil
}

func (o *HROps) PendingLeaveRequests(ctx context.Context, managerID, departmentID int64) ([]Record, error) {
	domain := Domain{C("state", "in", []string{"draft", "confirm"})}

	if managerID != 0 {
		reports, err := o.conn.Search(ctx, "hr.employee", Domain{C("parent_id", "=", managerID)}, nil)
		if err != nil {
			return nil, err
		}
		if len(reports) > 0 {
			domain = append(domain, C("employee_id", "in", reports))
		}
	}
	if departmentID != 0 {
		domain = append(domain, C("employee_id.department_id", "=", departmentID))
	}

	return o.conn.SearchRead(ctx, "hr.leave", domain, []string{
		"employee_id", "holiday_status_id", "date_from", "date_to",
		"number_of_days", "state", "name",
	}, &QueryOptions{Order: "date_from asc"})
}

func (o *HROps) ApproveLeaveRequest(ctx context.Context, leaveID int64) error {
	if _, err := o.conn.CallMethod(ctx, "hr.leave", "action_validate", []any{[]int64{leaveID}}); err != nil {
		return fmt.Errorf("approve leave id=%d: %w", leaveID, err)
	}
	return nil
}

func (o *HROps) RejectLeaveRequest(ctx context.Context, leaveID int64) error {
	if _, err := o.conn.CallMethod(ctx, "hr.leave", "action_refuse", []any{[]int64{leaveID}}); err != nil {
		return fmt.Errorf("reject leave id=%d: %w", leaveID, err)
	}
	return nil
}

func (o *HROps) SearchApplicants(ctx context.Context, jobID int64, stage string, limit int) ([]Record, error) {
	domain := Domain{}
	if jobID != 0 {
		domain = append(domain, C("job_id", "=", jobID))
	}
	if stage != "" {
		domain = append(domain, C("stage_id.name", "ilike", stage))
	}
	if limit <= 0 {
		limit = 100
	}

	return o.conn.SearchRead(ctx, "hr.applicant", domain, []string{
		"partner_name", "email_from", "partner_phone",
		"job_id", "department_id", "stage_id",
		"salary_expected", "salary_proposed",
		"create_date", "kanban_state",
	}, &QueryOptions{Limit: limit, Order: "create_date desc"})
}

func (o *HROps) JobPositions(ctx context.Context, publishedOnly bool) ([]Record, error) {
	domain := Domain{}
	if publishedOnly {
		domain = append(domain, C("state", "=", "recruit"))
	}
	return o.conn.SearchRead(ctx, "hr.job", domain, []string{
		"name", "department_id", "no_of_recruitment",
		"no_of_employee", "state", "description",
	}, &QueryOptions{Order: "name asc"})
}

// AttendanceSummary aggregates attendance records for one employee.
type AttendanceSummary struct {
	EmployeeID  int64    `json:"employee_id"`
	DateFrom    string   `json:"date_from"`
	DateTo      string   `json:"date_to"`
	TotalHours  float64  `json:"total_hours"`
	DaysPresent int      `json:"days_present"`
	Records     []Record `json:"records"`
}

func (o *HROps) AttendanceSummary(ctx context.Context, employeeID int64, dateFrom, dateTo string) (AttendanceSummary, error) {
	exists, err := o.conn.ModelExists(ctx, "hr.attendance")
	if err != nil {
		return AttendanceSummary{}, err
	}
	if !exists {
		return AttendanceSummary{}, fmt.Errorf("%w: hr.attendance", ErrModelUnmatched)
	}

	records, err := o.conn.SearchRead(ctx, "hr.attendance", Domain{
		C("employee_id", "=", employeeID),
		C("check_in", ">=", dateFrom+" 00:00:00"),
		C("check_in", "<=", dateTo+" 23:59:59"),
	}, []string{"check_in", "check_out", "worked_hours"}, &QueryOptions{Order: "check_in asc"})
	if err != nil {
		return AttendanceSummary{}, err
	}

	var total float64
	days := map[string]struct{}{}
	for _, rec := range records {
		total += rec.Float("worked_hours")
		if in := rec.Str("check_in"); len(in) >= 10 {
			days[in[:10]] = struct{}{}
		}
	}

	return AttendanceSummary{
		EmployeeID:  employeeID,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		TotalHours:  math.Round(total*100) / 100,
		DaysPresent: len(days),
		Records:     records,
	}, nil
}

func (o *HROps) Departments(ctx context.Context) ([]Record, error) {
	return o.conn.SearchRead(ctx, "hr.department", Domain{},
		[]string{"name", "parent_id", "manager_id", "company_id"},
		&QueryOptions{Order: "name asc"})
}

// OrgChartNode is one employee in a department hierarchy.
type OrgChartNode struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Job     string         `json:"job,omitempty"`
	Reports []OrgChartNode `json:"reports"`
}

// OrgChart is the reporting structure of one department.
type OrgChart struct {
	Department string         `json:"department"`
	ManagerID  int64          `json:"manager_id,omitempty"`
	Nodes      []OrgChartNode `json:"org_chart"`
}

func (o *HROps) DepartmentOrgChart(ctx context.Context, departmentID int64) (OrgChart, error) {
	depts, err := o.conn.Read(ctx, "hr.department", []int64{departmentID}, nil)
	if err != nil {
		return OrgChart{}, err
	}
	if len(depts) == 0 {
		return OrgChart{}, fmt.Errorf("%w: department id=%d", ErrNotFound, departmentID)
	}
	dept := depts[0]

	employees, err := o.conn.SearchRead(ctx, "hr.employee",
		Domain{C("department_id", "=", departmentID)},
		[]string{"name", "job_id", "parent_id", "work_email"},
		&QueryOptions{Order: "name asc"})
	if err != nil {
		return OrgChart{}, err
	}

	var build func(parentID int64) []OrgChartNode
	build = func(parentID int64) []OrgChartNode {
		var nodes []OrgChartNode
		for _, emp := range employees {
			if emp.RelID("parent_id") != parentID {
				continue
			}
			nodes = append(nodes, OrgChartNode{
				ID:      emp.Int("id"),
				Name:    emp.Str("name"),
				Job:     emp.Rel("job_id"),
				Reports: build(emp.Int("id")),
			})
		}
		return nodes
	}

	managerID := dept.RelID("manager_id")
	chart := OrgChart{Department: dept.Str("name"), ManagerID: managerID}
	if managerID == 0 {
		chart.Nodes = build(0)
	} else {
		chart.Nodes = build(managerID)
	}

	log.Debug().Int64("department_id", departmentID).Int("employees", len(employees)).Msg("built org chart")
	return chart, nil
}
