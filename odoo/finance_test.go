package odoo

import (
	"context"
	"errors"
	"testing"
)

func TestMonthWindowDefaults(t *testing.T) {
	t.Parallel()

	ops := NewFinanceOps(&fakeConn{})
	ops.now = fixedNow

	from, to := ops.monthWindow("", "")
	if from != "2026-06-01" || to != "2026-06-10" {
		t.Fatalf("window = %s..%s", from, to)
	}

	from, to = ops.monthWindow("2026-01-01", "")
	if from != "2026-01-01" || to != "2026-06-10" {
		t.Fatalf("partial window = %s..%s", from, to)
	}

	from, to = ops.monthWindow("2026-01-01", "2026-03-31")
	if from != "2026-01-01" || to != "2026-03-31" {
		t.Fatalf("explicit window = %s..%s", from, to)
	}
}

func TestOutstandingInvoicesComputesOverdueDays(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		searchRead: func(model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error) {
			return []Record{
				{"name": "INV/001", "invoice_date_due": "2026-06-01", "amount_residual": 500.0},
				{"name": "INV/002", "invoice_date_due": "2026-06-20", "amount_residual": 250.0},
				{"name": "INV/003", "invoice_date_due": false, "amount_residual": 100.0},
			}, nil
		},
	}
	ops := NewFinanceOps(conn)
	ops.now = fixedNow

	invoices, err := ops.OutstandingInvoices(context.Background(), 0)
	if err != nil {
		t.Fatalf("OutstandingInvoices() error = %v", err)
	}
	if invoices[0]["days_overdue"] != 9 {
		t.Fatalf("INV/001 days_overdue = %v, want 9", invoices[0]["days_overdue"])
	}
	// Not yet due.
	if invoices[1]["days_overdue"] != 0 {
		t.Fatalf("INV/002 days_overdue = %v, want 0", invoices[1]["days_overdue"])
	}
	// Unparseable due date degrades to zero.
	if invoices[2]["days_overdue"] != 0 {
		t.Fatalf("INV/003 days_overdue = %v, want 0", invoices[2]["days_overdue"])
	}
}

func TestCreateJournalEntryRejectsUnbalanced(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	ops := NewFinanceOps(conn)

	_, err := ops.CreateJournalEntry(context.Background(), 1, "2026-06-10", "adjustment", []JournalLine{
		{AccountID: 10, Debit: 100},
		{AccountID: 11, Credit: 99.90},
	}, false)
	if !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}
	if len(conn.created) != 0 {
		t.Fatal("unbalanced entry must not reach the ERP")
	}
}

func TestCreateJournalEntryToleratesRounding(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	ops := NewFinanceOps(conn)

	// Float drift below a cent is within tolerance.
	_, err := ops.CreateJournalEntry(context.Background(), 1, "2026-06-10", "rounding", []JournalLine{
		{AccountID: 10, Debit: 0.1},
		{AccountID: 10, Debit: 0.2},
		{AccountID: 11, Credit: 0.3},
	}, false)
	if err != nil {
		t.Fatalf("CreateJournalEntry() error = %v", err)
	}
}

func TestCreateJournalEntryBuildsLineCommands(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		create: func(model string, values map[string]any) (int64, error) {
			if model != "account.move" {
				t.Errorf("model = %s", model)
			}
			return 77, nil
		},
	}
	ops := NewFinanceOps(conn)

	rec, err := ops.CreateJournalEntry(context.Background(), 3, "2026-06-10", "June rent", []JournalLine{
		{AccountID: 10, Debit: 1000, PartnerID: 8},
		{AccountID: 11, Credit: 1000, Name: "rent payable"},
	}, true)
	if err != nil {
		t.Fatalf("CreateJournalEntry() error = %v", err)
	}
	if rec.Int("id") != 77 || rec.Str("state") != "posted" {
		t.Fatalf("result = %v", rec)
	}

	values := conn.created[0]
	if values["move_type"] != "entry" || values["journal_id"] != int64(3) {
		t.Fatalf("entry values = %v", values)
	}

	lineIDs := values["line_ids"].([]any)
	if len(lineIDs) != 2 {
		t.Fatalf("line commands = %d", len(lineIDs))
	}
	first := lineIDs[0].([]any)
	if first[0] != 0 || first[1] != 0 {
		t.Fatalf("not a create command: %v", first[:2])
	}
	firstVals := first[2].(map[string]any)
	if firstVals["partner_id"] != int64(8) {
		t.Fatalf("partner_id = %v", firstVals["partner_id"])
	}
	// Lines without a label inherit the entry reference.
	if firstVals["name"] != "June rent" {
		t.Fatalf("name = %v", firstVals["name"])
	}
	secondVals := lineIDs[1].([]any)[2].(map[string]any)
	if secondVals["partner_id"] != false {
		t.Fatalf("unset partner should encode as false, got %v", secondVals["partner_id"])
	}
	if secondVals["name"] != "rent payable" {
		t.Fatalf("second name = %v", secondVals["name"])
	}

	if len(conn.methods) != 1 || conn.methods[0] != "account.move.action_post" {
		t.Fatalf("post action = %v", conn.methods)
	}
}

func TestCreateJournalEntryDraftSkipsPost(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	ops := NewFinanceOps(conn)

	rec, err := ops.CreateJournalEntry(context.Background(), 3, "2026-06-10", "draft entry", []JournalLine{
		{AccountID: 10, Debit: 50},
		{AccountID: 11, Credit: 50},
	}, false)
	if err != nil {
		t.Fatalf("CreateJournalEntry() error = %v", err)
	}
	if rec.Str("state") != "draft" {
		t.Fatalf("state = %s", rec.Str("state"))
	}
	if len(conn.methods) != 0 {
		t.Fatalf("unexpected method calls: %v", conn.methods)
	}
}

func TestProfitLossAggregatesByDirection(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		searchRead: func(model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error) {
			switch model {
			case "account.account":
				types := domain[0].([]any)[2].([]string)
				if types[0] == "income" {
					return []Record{{"id": int64(1), "name": "Sales", "code": "400"}}, nil
				}
				return []Record{{"id": int64(2), "name": "Rent", "code": "600"}}, nil
			case "account.move.line":
				account := domain[0].([]any)[2].(int64)
				if account == 1 {
					// Revenue is credit-positive.
					return []Record{{"credit": 900.0, "debit": 100.0}}, nil
				}
				return []Record{{"debit": 300.0, "credit": 0.0}}, nil
			}
			t.Fatalf("unexpected model %s", model)
			return nil, nil
		},
	}
	ops := NewFinanceOps(conn)
	ops.now = fixedNow

	pl, err := ops.ProfitLoss(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ProfitLoss() error = %v", err)
	}
	if pl.TotalRevenue != 800 {
		t.Fatalf("revenue = %v", pl.TotalRevenue)
	}
	if pl.TotalExpenses != 300 {
		t.Fatalf("expenses = %v", pl.TotalExpenses)
	}
	if pl.NetProfit != 500 {
		t.Fatalf("net = %v", pl.NetProfit)
	}
	if pl.DateFrom != "2026-06-01" || pl.DateTo != "2026-06-10" {
		t.Fatalf("window = %s..%s", pl.DateFrom, pl.DateTo)
	}
}

func TestExpenseBreakdownPercentages(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		searchRead: func(model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error) {
			switch model {
			case "account.account":
				return []Record{
					{"id": int64(1), "name": "Rent", "code": "600"},
					{"id": int64(2), "name": "Salaries", "code": "610"},
					{"id": int64(3), "name": "Refunds", "code": "620"},
				}, nil
			case "account.move.line":
				switch domain[0].([]any)[2].(int64) {
				case 1:
					return []Record{{"debit": 250.0, "credit": 0.0}}, nil
				case 2:
					return []Record{{"debit": 750.0, "credit": 0.0}}, nil
				default:
					// Net credit: not real spend, excluded from categories.
					return []Record{{"debit": 0.0, "credit": 100.0}}, nil
				}
			}
			return nil, nil
		},
	}
	ops := NewFinanceOps(conn)
	ops.now = fixedNow

	breakdown, err := ops.ExpenseBreakdown(context.Background(), "", "")
	if err != nil {
		t.Fatalf("ExpenseBreakdown() error = %v", err)
	}
	if breakdown.TotalExpenses != 1000 {
		t.Fatalf("total = %v", breakdown.TotalExpenses)
	}
	if len(breakdown.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(breakdown.Categories))
	}
	// Sorted by amount descending.
	if breakdown.Categories[0].Account != "Salaries" || breakdown.Categories[0].Percentage != 75 {
		t.Fatalf("top category = %+v", breakdown.Categories[0])
	}
	if breakdown.Categories[1].Percentage != 25 {
		t.Fatalf("second category = %+v", breakdown.Categories[1])
	}
}
