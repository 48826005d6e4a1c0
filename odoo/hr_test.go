package odoo

import (
	"context"
	"errors"
	"testing"
)

func TestLeaveBalances(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		searchRead: func(model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error) {
			if model != "hr.leave.allocation" {
				t.Errorf("model = %s", model)
			}
			return []Record{
				{"holiday_status_id": []any{int64(1), "Annual Leave"}, "number_of_days": 21.0, "leaves_taken": 6.0},
				{"holiday_status_id": []any{int64(2), "Sick Leave"}, "number_of_days": 10.0, "leaves_taken": 0.0},
			}, nil
		},
	}
	ops := NewHROps(conn)

	balances, err := ops.LeaveBalances(context.Background(), 5)
	if err != nil {
		t.Fatalf("LeaveBalances() error = %v", err)
	}
	annual := balances["Annual Leave"]
	if annual.Allocated != 21 || annual.Taken != 6 || annual.Remaining != 15 {
		t.Fatalf("annual balance = %+v", annual)
	}
	if balances["Sick Leave"].Remaining != 10 {
		t.Fatalf("sick balance = %+v", balances["Sick Leave"])
	}
}

func TestCreateLeaveRequestAddsWorkdayTimes(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		create: func(model string, values map[string]any) (int64, error) {
			if model != "hr.leave" {
				t.Errorf("model = %s", model)
			}
			return 42, nil
		},
	}
	ops := NewHROps(conn)

	rec, err := ops.CreateLeaveRequest(context.Background(), 5, 1, "2026-07-01", "2026-07-03", "family trip")
	if err != nil {
		t.Fatalf("CreateLeaveRequest() error = %v", err)
	}
	if rec.Int("id") != 42 || rec.Str("state") != "draft" {
		t.Fatalf("unexpected result: %v", rec)
	}

	values := conn.created[0]
	if values["date_from"] != "2026-07-01 08:00:00" {
		t.Fatalf("date_from = %v", values["date_from"])
	}
	if values["date_to"] != "2026-07-03 17:00:00" {
		t.Fatalf("date_to = %v", values["date_to"])
	}
	if values["request_date_from"] != "2026-07-01" || values["request_date_to"] != "2026-07-03" {
		t.Fatalf("request dates = %v, %v", values["request_date_from"], values["request_date_to"])
	}
	if values["name"] != "family trip" {
		t.Fatalf("name = %v", values["name"])
	}
}

func TestLeaveApprovalActions(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	ops := NewHROps(conn)
	ctx := context.Background()

	if err := ops.ApproveLeaveRequest(ctx, 9); err != nil {
		t.Fatalf("ApproveLeaveRequest() error = %v", err)
	}
	if err := ops.RejectLeaveRequest(ctx, 9); err != nil {
		t.Fatalf("RejectLeaveRequest() error = %v", err)
	}
	if len(conn.methods) != 2 ||
		conn.methods[0] != "hr.leave.action_validate" ||
		conn.methods[1] != "hr.leave.action_refuse" {
		t.Fatalf("methods = %v", conn.methods)
	}
}

func TestAttendanceSummaryRequiresModule(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{models: map[string]bool{}}
	ops := NewHROps(conn)

	_, err := ops.AttendanceSummary(context.Background(), 5, "2026-06-01", "2026-06-07")
	if !errors.Is(err, ErrModelUnmatched) {
		t.Fatalf("expected ErrModelUnmatched, got %v", err)
	}
}

func TestAttendanceSummaryAggregates(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		models: map[string]bool{"hr.attendance": true},
		searchRead: func(model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error) {
			return []Record{
				{"check_in": "2026-06-01 08:02:11", "worked_hours": 8.25},
				{"check_in": "2026-06-01 18:00:00", "worked_hours": 1.5},
				{"check_in": "2026-06-02 08:10:00", "worked_hours": 7.333},
			}, nil
		},
	}
	ops := NewHROps(conn)

	summary, err := ops.AttendanceSummary(context.Background(), 5, "2026-06-01", "2026-06-07")
	if err != nil {
		t.Fatalf("AttendanceSummary() error = %v", err)
	}
	if summary.TotalHours != 17.08 {
		t.Fatalf("total hours = %v, want 17.08", summary.TotalHours)
	}
	// Two check-ins on June 1 count as one day of presence.
	if summary.DaysPresent != 2 {
		t.Fatalf("days present = %d, want 2", summary.DaysPresent)
	}
	if len(summary.Records) != 3 {
		t.Fatalf("records = %d", len(summary.Records))
	}
}
