package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/egware/erpagent/odoo"
)

// HRBindings exposes human resources tools.
func HRBindings(ops *odoo.HROps) []Binding {
	return []Binding{
		{
			Info: &schema.ToolInfo{
				Name: "search_employees",
				Desc: "Search employees by department, job title, or manager.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"department": {Type: schema.String, Desc: "Department name (partial match)"},
					"job_title":  {Type: schema.String, Desc: "Job title (partial match)"},
					"manager_id": {Type: schema.Integer, Desc: "Manager's employee id"},
					"limit":      {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchEmployees(ctx, odoo.EmployeeFilter{
					Department: args.String("department"),
					JobTitle:   args.String("job_title"),
					ManagerID:  args.Int("manager_id"),
					Limit:      args.IntOr("limit", 100),
				})
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_employee_details",
				Desc: "Get full details of one employee, including the current contract.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"employee_id": {Type: schema.Integer, Desc: "Employee record id", Required: true},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.EmployeeDetails(ctx, args.Int("employee_id"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_pending_leave_requests",
				Desc: "List leave requests awaiting approval.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"manager_id":    {Type: schema.Integer, Desc: "Only requests from this manager's reports"},
					"department_id": {Type: schema.Integer, Desc: "Only requests from this department"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.PendingLeaveRequests(ctx, args.Int("manager_id"), args.Int("department_id"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name:        "get_leave_types",
				Desc:        "List available leave types.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.LeaveTypes(ctx)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name:        "get_departments",
				Desc:        "List all departments with their managers.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.Departments(ctx)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_job_positions",
				Desc: "List job positions, optionally only ones open for recruitment.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"published_only": {Type: schema.Boolean, Desc: "Only positions currently recruiting, default true"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				published := true
				if _, ok := args["published_only"]; ok {
					published = args.Bool("published_only")
				}
				return ops.JobPositions(ctx, published)
			},
		},
	}
}
