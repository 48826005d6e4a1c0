package odoo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// FinanceOps exposes accounting, reporting, and sales operations.
type FinanceOps struct {
	conn Conn
	now  func() time.Time
}

func NewFinanceOps(conn Conn) *FinanceOps {
	return &FinanceOps{conn: conn, now: time.Now}
}

// monthWindow fills missing report bounds with the current month.
func (o *FinanceOps) monthWindow(dateFrom, dateTo string) (string, string) {
	now := o.now()
	if dateFrom == "" {
		dateFrom = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02")
	}
	if dateTo == "" {
		dateTo = now.Format("2006-01-02")
	}
	return dateFrom, dateTo
}

// FinancialSummary is the at-a-glance company position.
type FinancialSummary struct {
	TotalReceivables float64 `json:"total_receivables"`
	TotalPayables    float64 `json:"total_payables"`
	CashBalance      float64 `json:"cash_balance"`
	OverdueCount     int     `json:"overdue_count"`
	OverdueAmount    float64 `json:"overdue_amount"`
}

func (o *FinanceOps) FinancialSummary(ctx context.Context) (FinancialSummary, error) {
	var summary FinancialSummary

	receivables, err := o.conn.SearchRead(ctx, "account.move", Domain{
		C("move_type", "=", "out_invoice"),
		C("state", "=", "posted"),
		C("payment_state", "in", []string{"not_paid", "partial"}),
	}, []string{"amount_residual"}, &QueryOptions{Limit: 1000})
	if err != nil {
		return FinancialSummary{}, err
	}
	for _, r := range receivables {
		summary.TotalReceivables += r.Float("amount_residual")
	}

	payables, err := o.conn.SearchRead(ctx, "account.move", Domain{
		C("move_type", "=", "in_invoice"),
		C("state", "=", "posted"),
		C("payment_state", "in", []string{"not_paid", "partial"}),
	}, []string{"amount_residual"}, &QueryOptions{Limit: 1000})
	if err != nil {
		return FinancialSummary{}, err
	}
	for _, p := range payables {
		summary.TotalPayables += p.Float("amount_residual")
	}

	journals, err := o.conn.SearchRead(ctx, "account.journal",
		Domain{C("type", "in", []string{"bank", "cash"})},
		[]string{"id", "name"}, nil)
	if err != nil {
		return FinancialSummary{}, err
	}
	for _, journal := range journals {
		lines, err := o.conn.SearchRead(ctx, "account.move.line", Domain{
			C("journal_id", "=", journal.Int("id")),
			C("parent_state", "=", "posted"),
		}, []string{"balance"}, &QueryOptions{Limit: 5000})
		if err != nil {
			return FinancialSummary{}, err
		}
		for _, line := range lines {
			summary.CashBalance += line.Float("balance")
		}
	}

	today := o.now().Format("2006-01-02")
	overdue, err := o.conn.SearchRead(ctx, "account.move", Domain{
		C("move_type", "=", "out_invoice"),
		C("state", "=", "posted"),
		C("payment_state", "in", []string{"not_paid", "partial"}),
		C("invoice_date_due", "<", today),
	}, []string{"amount_residual"}, &QueryOptions{Limit: 1000})
	if err != nil {
		return FinancialSummary{}, err
	}
	summary.OverdueCount = len(overdue)
	for _, inv := range overdue {
		summary.OverdueAmount += inv.Float("amount_residual")
	}

	return summary, nil
}

// InvoiceFilter narrows SearchInvoices.
type InvoiceFilter struct {
	PartnerName  string
	State        string
	MoveType     string
	DateFrom     string
	DateTo       string
	PaymentState string
	Limit        int
}

func (o *FinanceOps) SearchInvoices(ctx context.Context, filter InvoiceFilter) ([]Record, error) {
	domain := Domain{C("move_type", "in", []string{"out_invoice", "in_invoice", "out_refund", "in_refund"})}

	if filter.PartnerName != "" {
		domain = append(domain, C("partner_id.name", "ilike", filter.PartnerName))
	}
	if filter.State != "" {
		domain = append(domain, C("state", "=", filter.State))
	}
	if filter.MoveType != "" {
		domain = append(domain, C("move_type", "=", filter.MoveType))
	}
	if filter.DateFrom != "" {
		domain = append(domain, C("invoice_date", ">=", filter.DateFrom))
	}
	if filter.DateTo != "" {
		domain = append(domain, C("invoice_date", "<=", filter.DateTo))
	}
	if filter.PaymentState != "" {
		domain = append(domain, C("payment_state", "=", filter.PaymentState))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	return o.conn.SearchRead(ctx, "account.move", domain, []string{
		"name", "partner_id", "invoice_date", "invoice_date_due",
		"amount_total", "amount_residual", "amount_untaxed", "amount_tax",
		"state", "payment_state", "move_type", "currency_id", "ref",
	}, &QueryOptions{Limit: limit, Order: "invoice_date desc"})
}

// InvoiceDetails returns the invoice with its product lines and, once
// partially or fully paid, the matching payments.
func (o *FinanceOps) InvoiceDetails(ctx context.Context, invoiceID int64) (Record, error) {
	invoices, err := o.conn.Read(ctx, "account.move", []int64{invoiceID}, nil)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, fmt.Errorf("%w: invoice id=%d", ErrNotFound, invoiceID)
	}

	invoice := invoices[0]

	lines, err := o.conn.SearchRead(ctx, "account.move.line", Domain{
		C("move_id", "=", invoiceID),
		C("display_type", "in", []any{"product", false}),
	}, []string{
		"name", "product_id", "quantity", "price_unit",
		"price_subtotal", "price_total", "tax_ids", "account_id",
	}, nil)
	if err != nil {
		return nil, err
	}
	invoice["invoice_lines"] = lines

	if state := invoice.Str("payment_state"); state == "partial" || state == "paid" {
		payments, err := o.conn.SearchRead(ctx, "account.payment",
			Domain{C("ref", "ilike", invoice.Str("name"))},
			[]string{"name", "amount", "date", "state", "payment_type"},
			&QueryOptions{Limit: 20})
		if err != nil {
			return nil, err
		}
		invoice["payments"] = payments
	}

	return invoice, nil
}

// OutstandingInvoices lists unpaid customer invoices with aging info.
// daysOverdue=0 returns everything unpaid.
func (o *FinanceOps) OutstandingInvoices(ctx context.Context, daysOverdue int) ([]Record, error) {
	today := o.now()
	domain := Domain{
		C("move_type", "=", "out_invoice"),
		C("state", "=", "posted"),
		C("payment_state", "in", []string{"not_paid", "partial"}),
	}
	if daysOverdue > 0 {
		due := today.AddDate(0, 0, -daysOverdue).Format("2006-01-02")
		domain = append(domain, C("invoice_date_due", "<=", due))
	}

	invoices, err := o.conn.SearchRead(ctx, "account.move", domain, []string{
		"name", "partner_id", "invoice_date", "invoice_date_due",
		"amount_total", "amount_residual", "currency_id",
	}, &QueryOptions{Limit: 100, Order: "invoice_date_due asc"})
	if err != nil {
		return nil, err
	}

	for _, inv := range invoices {
		overdue := 0
		if due, err := time.Parse("2006-01-02", inv.Str("invoice_date_due")); err == nil {
			if days := int(today.Sub(due).Hours() / 24); days > 0 {
				overdue = days
			}
		}
		inv["days_overdue"] = overdue
	}
	return invoices, nil
}

// PaymentFilter narrows SearchPayments.
type PaymentFilter struct {
	PartnerName string
	PaymentType string
	State       string
	DateFrom    string
	DateTo      string
	Limit       int
}

func (o *FinanceOps) SearchPayments(ctx context.Context, filter PaymentFilter) ([]Record, error) {
	domain := Domain{}
	if filter.PartnerName != "" {
		domain = append(domain, C("partner_id.name", "ilike", filter.PartnerName))
	}
	if filter.PaymentType != "" {
		domain = append(domain, C("payment_type", "=", filter.PaymentType))
	}
	if filter.State != "" {
		domain = append(domain, C("state", "=", filter.State))
	}
	if filter.DateFrom != "" {
		domain = append(domain, C("date", ">=", filter.DateFrom))
	}
	if filter.DateTo != "" {
		domain = append(domain, C("date", "<=", filter.DateTo))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	return o.conn.SearchRead(ctx, "account.payment", domain, []string{
		"name", "partner_id", "amount", "date", "state",
		"payment_type", "journal_id", "currency_id", "ref",
	}, &QueryOptions{Limit: limit, Order: "date desc"})
}

func (o *FinanceOps) PaymentDetails(ctx context.Context, paymentID int64) (Record, error) {
	payments, err := o.conn.Read(ctx, "account.payment", []int64{paymentID}, nil)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: payment id=%d", ErrNotFound, paymentID)
	}

	payment := payments[0]
	if reconciled := payment.IDs("reconciled_invoice_ids"); len(reconciled) > 0 {
		invoices, err := o.conn.SearchRead(ctx, "account.move",
			Domain{C("id", "in", reconciled)},
			[]string{"name", "amount_total", "invoice_date"}, nil)
		if err != nil {
			return nil, err
		}
		payment["related_invoices"] = invoices
	}
	return payment, nil
}

func (o *FinanceOps) Journals(ctx context.Context, journalType string) ([]Record, error) {
	domain := Domain{}
	if journalType != "" {
		domain = append(domain, C("type", "=", journalType))
	}
	return o.conn.SearchRead(ctx, "account.journal", domain,
		[]string{"name", "code", "type", "currency_id", "company_id"},
		&QueryOptions{Order: "name asc"})
}

func (o *FinanceOps) SearchJournalEntries(ctx context.Context, journalID int64, dateFrom, dateTo string, limit int) ([]Record, error) {
	domain := Domain{C("move_type", "=", "entry")}
	if journalID != 0 {
		domain = append(domain, C("journal_id", "=", journalID))
	}
	if dateFrom != "" {
		domain = append(domain, C("date", ">=", dateFrom))
	}
	if dateTo != "" {
		domain = append(domain, C("date", "<=", dateTo))
	}
	if limit <= 0 {
		limit = 50
	}

	return o.conn.SearchRead(ctx, "account.move", domain, []string{
		"name", "date", "journal_id", "ref",
		"amount_total", "state", "partner_id",
	}, &QueryOptions{Limit: limit, Order: "date desc"})
}

// JournalLine is one leg of a journal entry to create.
type JournalLine struct {
	AccountID int64   `json:"account_id"`
	Name      string  `json:"name,omitempty"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
	PartnerID int64   `json:"partner_id,omitempty"`
}

// CreateJournalEntry validates double-entry balance locally before
// creating the move remotely. Debits and credits must match within a
// 0.01 rounding tolerance.
func (o *FinanceOps) CreateJournalEntry(ctx context.Context, journalID int64, date, ref string, lines []JournalLine, autoPost bool) (Record, error) {
	var totalDebit, totalCredit float64
	for _, line := range lines {
		totalDebit += line.Debit
		totalCredit += line.Credit
	}
	if math.Abs(totalDebit-totalCredit) > 0.01 {
		return nil, fmt.Errorf("%w: debit=%.2f credit=%.2f", ErrUnbalanced, totalDebit, totalCredit)
	}

	lineIDs := make([]any, 0, len(lines))
	for _, line := range lines {
		name := line.Name
		if name == "" {
			name = ref
		}
		var partner any = false
		if line.PartnerID != 0 {
			partner = line.PartnerID
		}
		// Odoo one2many create command: (0, 0, values).
		lineIDs = append(lineIDs, []any{0, 0, map[string]any{
			"account_id": line.AccountID,
			"name":       name,
			"debit":      line.Debit,
			"credit":     line.Credit,
			"partner_id": partner,
		}})
	}

	entryID, err := o.conn.Create(ctx, "account.move", map[string]any{
		"journal_id": journalID,
		"date":       date,
		"ref":        ref,
		"move_type":  "entry",
		"line_ids":   lineIDs,
	})
	if err != nil {
		return nil, err
	}

	state := "draft"
	if autoPost {
		if _, err := o.conn.CallMethod(ctx, "account.move", "action_post", []any{[]int64{entryID}}); err != nil {
			return nil, err
		}
		state = "posted"
	}

	log.Info().Int64("entry_id", entryID).Int64("journal_id", journalID).Str("state", state).Msg("journal entry created")
	return Record{
		"id":           entryID,
		"journal_id":   journalID,
		"date":         date,
		"ref":          ref,
		"total_amount": totalDebit,
		"state":        state,
	}, nil
}

// AccountAmount is a per-account aggregate in a report breakdown.
type AccountAmount struct {
	Account    string  `json:"account"`
	Code       string  `json:"code"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage,omitempty"`
}

// ProfitLoss is a P&L statement over a date window.
type ProfitLoss struct {
	DateFrom         string          `json:"date_from"`
	DateTo           string          `json:"date_to"`
	TotalRevenue     float64         `json:"total_revenue"`
	TotalExpenses    float64         `json:"total_expenses"`
	NetProfit        float64         `json:"net_profit"`
	RevenueBreakdown []AccountAmount `json:"revenue_breakdown"`
	ExpenseBreakdown []AccountAmount `json:"expense_breakdown"`
}

var (
	incomeAccountTypes  = []string{"income", "income_other"}
	expenseAccountTypes = []string{"expense", "expense_depreciation", "expense_direct_cost"}
)

// sumAccountActivity totals posted move lines per account of the given
// types. Positive direction is credit-minus-debit when creditPositive.
func (o *FinanceOps) sumAccountActivity(ctx context.Context, accountTypes []string, dateFrom, dateTo string, creditPositive bool) ([]AccountAmount, float64, error) {
	accounts, err := o.conn.SearchRead(ctx, "account.account",
		Domain{C("account_type", "in", accountTypes)},
		[]string{"id", "name", "code"}, nil)
	if err != nil {
		return nil, 0, err
	}

	var out []AccountAmount
	var total float64
	for _, acc := range accounts {
		lines, err := o.conn.SearchRead(ctx, "account.move.line", Domain{
			C("account_id", "=", acc.Int("id")),
			C("date", ">=", dateFrom),
			C("date", "<=", dateTo),
			C("parent_state", "=", "posted"),
		}, []string{"credit", "debit"}, nil)
		if err != nil {
			return nil, 0, err
		}

		var amount float64
		for _, line := range lines {
			if creditPositive {
				amount += line.Float("credit") - line.Float("debit")
			} else {
				amount += line.Float("debit") - line.Float("credit")
			}
		}
		if math.Abs(amount) > 0 {
			out = append(out, AccountAmount{Account: acc.Str("name"), Code: acc.Str("code"), Amount: amount})
			total += amount
		}
	}
	return out, total, nil
}

func (o *FinanceOps) ProfitLoss(ctx context.Context, dateFrom, dateTo string) (ProfitLoss, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	result := ProfitLoss{DateFrom: dateFrom, DateTo: dateTo}

	revenue, totalRevenue, err := o.sumAccountActivity(ctx, incomeAccountTypes, dateFrom, dateTo, true)
	if err != nil {
		return ProfitLoss{}, err
	}
	expenses, totalExpenses, err := o.sumAccountActivity(ctx, expenseAccountTypes, dateFrom, dateTo, false)
	if err != nil {
		return ProfitLoss{}, err
	}

	result.RevenueBreakdown = revenue
	result.TotalRevenue = totalRevenue
	result.ExpenseBreakdown = expenses
	result.TotalExpenses = totalExpenses
	result.NetProfit = totalRevenue - totalExpenses
	return result, nil
}

// JournalFlow is cash movement through one bank/cash journal.
type JournalFlow struct {
	Journal  string  `json:"journal"`
	Type     string  `json:"type"`
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
	Net      float64 `json:"net"`
}

// CashFlow summarizes cash movement over a date window.
type CashFlow struct {
	DateFrom       string        `json:"date_from"`
	DateTo         string        `json:"date_to"`
	TotalInflows   float64       `json:"total_inflows"`
	TotalOutflows  float64       `json:"total_outflows"`
	NetCashFlow    float64       `json:"net_cash_flow"`
	CurrentBalance float64       `json:"current_balance"`
	ByJournal      []JournalFlow `json:"by_journal"`
}

func (o *FinanceOps) CashFlow(ctx context.Context, dateFrom, dateTo string) (CashFlow, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	result := CashFlow{DateFrom: dateFrom, DateTo: dateTo}

	journals, err := o.conn.SearchRead(ctx, "account.journal",
		Domain{C("type", "in", []string{"bank", "cash"})},
		[]string{"id", "name", "type"}, nil)
	if err != nil {
		return CashFlow{}, err
	}

	journalIDs := make([]int64, 0, len(journals))
	for _, journal := range journals {
		journalIDs = append(journalIDs, journal.Int("id"))

		lines, err := o.conn.SearchRead(ctx, "account.move.line", Domain{
			C("journal_id", "=", journal.Int("id")),
			C("date", ">=", dateFrom),
			C("date", "<=", dateTo),
			C("parent_state", "=", "posted"),
		}, []string{"debit", "credit", "balance"}, nil)
		if err != nil {
			return CashFlow{}, err
		}

		var inflows, outflows float64
		for _, line := range lines {
			inflows += line.Float("debit")
			outflows += line.Float("credit")
		}

		result.ByJournal = append(result.ByJournal, JournalFlow{
			Journal:  journal.Str("name"),
			Type:     journal.Str("type"),
			Inflows:  inflows,
			Outflows: outflows,
			Net:      inflows - outflows,
		})
		result.TotalInflows += inflows
		result.TotalOutflows += outflows
	}
	result.NetCashFlow = result.TotalInflows - result.TotalOutflows

	if len(journalIDs) > 0 {
		lines, err := o.conn.SearchRead(ctx, "account.move.line", Domain{
			C("journal_id", "in", journalIDs),
			C("parent_state", "=", "posted"),
		}, []string{"balance"}, &QueryOptions{Limit: 10000})
		if err != nil {
			return CashFlow{}, err
		}
		for _, line := range lines {
			result.CurrentBalance += line.Float("balance")
		}
	}

	return result, nil
}

// ExpenseBreakdown is per-category spend over a date window.
type ExpenseBreakdown struct {
	DateFrom      string          `json:"date_from"`
	DateTo        string          `json:"date_to"`
	TotalExpenses float64         `json:"total_expenses"`
	Categories    []AccountAmount `json:"categories"`
}

func (o *FinanceOps) ExpenseBreakdown(ctx context.Context, dateFrom, dateTo string) (ExpenseBreakdown, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	result := ExpenseBreakdown{DateFrom: dateFrom, DateTo: dateTo}

	categories, total, err := o.sumAccountActivity(ctx, expenseAccountTypes, dateFrom, dateTo, false)
	if err != nil {
		return ExpenseBreakdown{}, err
	}

	// Only real spend counts as a category.
	kept := categories[:0]
	for _, cat := range categories {
		if cat.Amount > 0 {
			kept = append(kept, cat)
		} else {
			total -= cat.Amount
		}
	}
	result.Categories = kept
	result.TotalExpenses = total

	if total > 0 {
		for i := range result.Categories {
			result.Categories[i].Percentage = math.Round(result.Categories[i].Amount/total*1000) / 10
		}
	}
	sort.Slice(result.Categories, func(i, j int) bool {
		return result.Categories[i].Amount > result.Categories[j].Amount
	})

	return result, nil
}

// CustomerAmount is a per-customer revenue aggregate.
type CustomerAmount struct {
	Customer string  `json:"customer"`
	Amount   float64 `json:"amount"`
}

// RevenueBreakdown is revenue by account and by customer.
type RevenueBreakdown struct {
	DateFrom     string           `json:"date_from"`
	DateTo       string           `json:"date_to"`
	TotalRevenue float64          `json:"total_revenue"`
	ByAccount    []AccountAmount  `json:"by_account"`
	ByCustomer   []CustomerAmount `json:"by_customer"`
}

func (o *FinanceOps) RevenueBreakdown(ctx context.Context, dateFrom, dateTo string) (RevenueBreakdown, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	result := RevenueBreakdown{DateFrom: dateFrom, DateTo: dateTo}

	accounts, total, err := o.sumAccountActivity(ctx, incomeAccountTypes, dateFrom, dateTo, true)
	if err != nil {
		return RevenueBreakdown{}, err
	}
	for _, acc := range accounts {
		if acc.Amount > 0 {
			result.ByAccount = append(result.ByAccount, acc)
		} else {
			total -= acc.Amount
		}
	}
	result.TotalRevenue = total

	invoices, err := o.conn.SearchRead(ctx, "account.move", Domain{
		C("move_type", "=", "out_invoice"),
		C("state", "=", "posted"),
		C("invoice_date", ">=", dateFrom),
		C("invoice_date", "<=", dateTo),
	}, []string{"partner_id", "amount_untaxed"}, nil)
	if err != nil {
		return RevenueBreakdown{}, err
	}

	customerTotals := map[string]float64{}
	for _, inv := range invoices {
		if customer := inv.Rel("partner_id"); customer != "" {
			customerTotals[customer] += inv.Float("amount_untaxed")
		}
	}
	for customer, amount := range customerTotals {
		result.ByCustomer = append(result.ByCustomer, CustomerAmount{Customer: customer, Amount: amount})
	}
	sort.Slice(result.ByCustomer, func(i, j int) bool {
		return result.ByCustomer[i].Amount > result.ByCustomer[j].Amount
	})
	if len(result.ByCustomer) > 20 {
		result.ByCustomer = result.ByCustomer[:20]
	}

	return result, nil
}

// Alert is a single financial alert for downstream notification.
type Alert struct {
	Type     string  `json:"type"`
	Priority string  `json:"priority"`
	Message  string  `json:"message"`
	Document string  `json:"document,omitempty"`
	Partner  string  `json:"partner,omitempty"`
	Journal  string  `json:"journal,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Days     int     `json:"days,omitempty"`
	Date     string  `json:"date,omitempty"`
}

func (o *FinanceOps) OverdueAlerts(ctx context.Context, daysThreshold int) ([]Alert, error) {
	overdue, err := o.OutstandingInvoices(ctx, 1)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(overdue))
	for _, inv := range overdue {
		days := int(inv.Int("days_overdue"))
		priority := "medium"
		if days > daysThreshold {
			priority = "high"
		}
		partner := inv.Rel("partner_id")
		if partner == "" {
			partner = "Unknown"
		}
		alerts = append(alerts, Alert{
			Type:     "overdue_invoice",
			Priority: priority,
			Document: inv.Str("name"),
			Partner:  partner,
			Amount:   inv.Float("amount_residual"),
			Days:     days,
			Message:  fmt.Sprintf("Invoice %s is %d days overdue", inv.Str("name"), days),
		})
	}
	return alerts, nil
}

func (o *FinanceOps) CashFlowAlerts(ctx context.Context, lowBalanceThreshold float64) ([]Alert, error) {
	journals, err := o.conn.SearchRead(ctx, "account.journal",
		Domain{C("type", "in", []string{"bank", "cash"})},
		[]string{"id", "name"}, nil)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, journal := range journals {
		lines, err := o.conn.SearchRead(ctx, "account.move.line", Domain{
			C("journal_id", "=", journal.Int("id")),
			C("parent_state", "=", "posted"),
		}, []string{"balance"}, &QueryOptions{Limit: 10000})
		if err != nil {
			return nil, err
		}

		var balance float64
		for _, line := range lines {
			balance += line.Float("balance")
		}

		if balance < lowBalanceThreshold {
			priority := "high"
			if balance < lowBalanceThreshold/2 {
				priority = "critical"
			}
			alerts = append(alerts, Alert{
				Type:     "low_cash_balance",
				Priority: priority,
				Journal:  journal.Str("name"),
				Amount:   balance,
				Message:  fmt.Sprintf("Low balance in %s: %.2f", journal.Str("name"), balance),
			})
		}
	}
	return alerts, nil
}

func (o *FinanceOps) LargeTransactionAlerts(ctx context.Context, amountThreshold float64, daysBack int) ([]Alert, error) {
	dateFrom := o.now().AddDate(0, 0, -daysBack).Format("2006-01-02")

	var alerts []Alert

	invoices, err := o.conn.SearchRead(ctx, "account.move", Domain{
		C("move_type", "in", []string{"out_invoice", "in_invoice"}),
		C("state", "=", "posted"),
		C("invoice_date", ">=", dateFrom),
		C("amount_total", ">=", amountThreshold),
	}, []string{"name", "partner_id", "amount_total", "move_type", "invoice_date"}, nil)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		kind := "Vendor Bill"
		if inv.Str("move_type") == "out_invoice" {
			kind = "Customer Invoice"
		}
		partner := inv.Rel("partner_id")
		if partner == "" {
			partner = "Unknown"
		}
		alerts = append(alerts, Alert{
			Type:     "large_transaction",
			Priority: "medium",
			Document: inv.Str("name"),
			Partner:  partner,
			Amount:   inv.Float("amount_total"),
			Date:     inv.Str("invoice_date"),
			Message:  fmt.Sprintf("Large transaction: %s (%s) for %.2f", inv.Str("name"), kind, inv.Float("amount_total")),
		})
	}

	payments, err := o.conn.SearchRead(ctx, "account.payment", Domain{
		C("state", "=", "posted"),
		C("date", ">=", dateFrom),
		C("amount", ">=", amountThreshold),
	}, []string{"name", "partner_id", "amount", "payment_type", "date"}, nil)
	if err != nil {
		return nil, err
	}
	for _, pay := range payments {
		kind := "Payment Sent"
		if pay.Str("payment_type") == "inbound" {
			kind = "Payment Received"
		}
		partner := pay.Rel("partner_id")
		if partner == "" {
			partner = "Unknown"
		}
		alerts = append(alerts, Alert{
			Type:     "large_transaction",
			Priority: "medium",
			Document: pay.Str("name"),
			Partner:  partner,
			Amount:   pay.Float("amount"),
			Date:     pay.Str("date"),
			Message:  fmt.Sprintf("Large payment: %s (%s) for %.2f", pay.Str("name"), kind, pay.Float("amount")),
		})
	}

	return alerts, nil
}

// AlertReport bundles every alert category for one scan.
type AlertReport struct {
	OverdueInvoices   []Alert `json:"overdue_invoices"`
	CashFlow          []Alert `json:"cash_flow"`
	LargeTransactions []Alert `json:"large_transactions"`
	TotalAlerts       int     `json:"total_alerts"`
}

func (o *FinanceOps) AllAlerts(ctx context.Context, overdueThreshold int, cashThreshold, transactionThreshold float64) (AlertReport, error) {
	overdue, err := o.OverdueAlerts(ctx, overdueThreshold)
	if err != nil {
		return AlertReport{}, err
	}
	cash, err := o.CashFlowAlerts(ctx, cashThreshold)
	if err != nil {
		return AlertReport{}, err
	}
	large, err := o.LargeTransactionAlerts(ctx, transactionThreshold, 7)
	if err != nil {
		return AlertReport{}, err
	}

	return AlertReport{
		OverdueInvoices:   overdue,
		CashFlow:          cash,
		LargeTransactions: large,
		TotalAlerts:       len(overdue) + len(cash) + len(large),
	}, nil
}

// CustomerSales is per-customer aggregated order volume.
type CustomerSales struct {
	ID         int64   `json:"id,omitempty"`
	Customer   string  `json:"customer"`
	Total      float64 `json:"total"`
	OrderCount int     `json:"order_count"`
}

// ProductSales is per-product aggregated order volume.
type ProductSales struct {
	ID         int64   `json:"id,omitempty"`
	Product    string  `json:"product"`
	Quantity   float64 `json:"quantity_sold"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"order_count,omitempty"`
}

// SalespersonSales is per-salesperson aggregated order volume.
type SalespersonSales struct {
	Salesperson string  `json:"salesperson"`
	Total       float64 `json:"total"`
	OrderCount  int     `json:"order_count"`
}

// SalesSummary aggregates confirmed sales orders over a date window.
type SalesSummary struct {
	DateFrom          string             `json:"date_from"`
	DateTo            string             `json:"date_to"`
	TotalSales        float64            `json:"total_sales"`
	OrderCount        int                `json:"order_count"`
	AverageOrderValue float64            `json:"average_order_value"`
	ConfirmedOrders   int                `json:"confirmed_orders"`
	DraftOrders       int                `json:"draft_orders"`
	TopProducts       []ProductSales     `json:"top_products"`
	TopCustomers      []CustomerSales    `json:"top_customers"`
	BySalesperson     []SalespersonSales `json:"sales_by_salesperson"`
}

func (o *FinanceOps) SalesSummary(ctx context.Context, dateFrom, dateTo string) (SalesSummary, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	result := SalesSummary{DateFrom: dateFrom, DateTo: dateTo}

	orders, err := o.conn.SearchRead(ctx, "sale.order", Domain{
		C("date_order", ">=", dateFrom+" 00:00:00"),
		C("date_order", "<=", dateTo+" 23:59:59"),
		C("state", "in", []string{"sale", "done"}),
	}, []string{
		"name", "partner_id", "amount_total", "amount_untaxed",
		"date_order", "state", "user_id", "currency_id",
	}, &QueryOptions{Order: "date_order desc"})
	if err != nil {
		return SalesSummary{}, err
	}

	result.OrderCount = len(orders)
	for _, order := range orders {
		result.TotalSales += order.Float("amount_total")
		if order.Str("state") == "sale" {
			result.ConfirmedOrders++
		}
	}
	if result.OrderCount > 0 {
		result.AverageOrderValue = math.Round(result.TotalSales/float64(result.OrderCount)*100) / 100
	}

	drafts, err := o.conn.SearchCount(ctx, "sale.order", Domain{
		C("date_order", ">=", dateFrom+" 00:00:00"),
		C("date_order", "<=", dateTo+" 23:59:59"),
		C("state", "=", "draft"),
	})
	if err != nil {
		return SalesSummary{}, err
	}
	result.DraftOrders = drafts

	customerTotals := map[string]*CustomerSales{}
	salespersonTotals := map[string]*SalespersonSales{}
	orderIDs := make([]int64, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.Int("id"))

		if customer := order.Rel("partner_id"); customer != "" {
			agg, ok := customerTotals[customer]
			if !ok {
				agg = &CustomerSales{Customer: customer}
				customerTotals[customer] = agg
			}
			agg.Total += order.Float("amount_total")
			agg.OrderCount++
		}
		if salesperson := order.Rel("user_id"); salesperson != "" {
			agg, ok := salespersonTotals[salesperson]
			if !ok {
				agg = &SalespersonSales{Salesperson: salesperson}
				salespersonTotals[salesperson] = agg
			}
			agg.Total += order.Float("amount_total")
			agg.OrderCount++
		}
	}

	for _, agg := range customerTotals {
		result.TopCustomers = append(result.TopCustomers, *agg)
	}
	sort.Slice(result.TopCustomers, func(i, j int) bool {
		return result.TopCustomers[i].Total > result.TopCustomers[j].Total
	})
	if len(result.TopCustomers) > 10 {
		result.TopCustomers = result.TopCustomers[:10]
	}

	for _, agg := range salespersonTotals {
		result.BySalesperson = append(result.BySalesperson, *agg)
	}
	sort.Slice(result.BySalesperson, func(i, j int) bool {
		return result.BySalesperson[i].Total > result.BySalesperson[j].Total
	})

	if len(orderIDs) > 0 {
		lines, err := o.conn.SearchRead(ctx, "sale.order.line",
			Domain{C("order_id", "in", orderIDs)},
			[]string{"product_id", "product_uom_qty", "price_subtotal"},
			&QueryOptions{Limit: 1000})
		if err != nil {
			return SalesSummary{}, err
		}

		productTotals := map[string]*ProductSales{}
		for _, line := range lines {
			product := line.Rel("product_id")
			if product == "" {
				continue
			}
			agg, ok := productTotals[product]
			if !ok {
				agg = &ProductSales{Product: product}
				productTotals[product] = agg
			}
			agg.Quantity += line.Float("product_uom_qty")
			agg.Revenue += line.Float("price_subtotal")
		}
		for _, agg := range productTotals {
			result.TopProducts = append(result.TopProducts, *agg)
		}
		sort.Slice(result.TopProducts, func(i, j int) bool {
			return result.TopProducts[i].Revenue > result.TopProducts[j].Revenue
		})
		if len(result.TopProducts) > 10 {
			result.TopProducts = result.TopProducts[:10]
		}
	}

	return result, nil
}

// SalesOrderFilter narrows SearchSalesOrders.
type SalesOrderFilter struct {
	PartnerName string
	State       string
	DateFrom    string
	DateTo      string
	Salesperson string
	Limit       int
}

func (o *FinanceOps) SearchSalesOrders(ctx context.Context, filter SalesOrderFilter) ([]Record, error) {
	domain := Domain{}
	if filter.PartnerName != "" {
		domain = append(domain, C("partner_id.name", "ilike", filter.PartnerName))
	}
	if filter.State != "" {
		domain = append(domain, C("state", "=", filter.State))
	}
	if filter.DateFrom != "" {
		domain = append(domain, C("date_order", ">=", filter.DateFrom+" 00:00:00"))
	}
	if filter.DateTo != "" {
		domain = append(domain, C("date_order", "<=", filter.DateTo+" 23:59:59"))
	}
	if filter.Salesperson != "" {
		domain = append(domain, C("user_id.name", "ilike", filter.Salesperson))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	return o.conn.SearchRead(ctx, "sale.order", domain, []string{
		"name", "partner_id", "date_order", "amount_total",
		"amount_untaxed", "state", "user_id", "currency_id",
		"invoice_status", "delivery_status",
	}, &QueryOptions{Limit: limit, Order: "date_order desc"})
}

func (o *FinanceOps) SalesOrderDetails(ctx context.Context, orderID int64) (Record, error) {
	orders, err := o.conn.Read(ctx, "sale.order", []int64{orderID}, nil)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: sales order id=%d", ErrNotFound, orderID)
	}

	order := orders[0]
	lines, err := o.conn.SearchRead(ctx, "sale.order.line",
		Domain{C("order_id", "=", orderID)},
		[]string{
			"product_id", "name", "product_uom_qty", "price_unit",
			"price_subtotal", "price_total", "discount", "tax_id",
		}, nil)
	if err != nil {
		return nil, err
	}
	order["order_lines"] = lines
	return order, nil
}

func (o *FinanceOps) TopSellingProducts(ctx context.Context, dateFrom, dateTo string, limit int) ([]ProductSales, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	if limit <= 0 {
		limit = 20
	}

	orderIDs, err := o.conn.Search(ctx, "sale.order", Domain{
		C("date_order", ">=", dateFrom+" 00:00:00"),
		C("date_order", "<=", dateTo+" 23:59:59"),
		C("state", "in", []string{"sale", "done"}),
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return []ProductSales{}, nil
	}

	lines, err := o.conn.SearchRead(ctx, "sale.order.line",
		Domain{C("order_id", "in", orderIDs)},
		[]string{"product_id", "product_uom_qty", "price_subtotal"}, nil)
	if err != nil {
		return nil, err
	}

	totals := map[int64]*ProductSales{}
	for _, line := range lines {
		pid := line.RelID("product_id")
		if pid == 0 {
			continue
		}
		agg, ok := totals[pid]
		if !ok {
			agg = &ProductSales{ID: pid, Product: line.Rel("product_id")}
			totals[pid] = agg
		}
		agg.Quantity += line.Float("product_uom_qty")
		agg.Revenue += line.Float("price_subtotal")
		agg.OrderCount++
	}

	out := make([]ProductSales, 0, len(totals))
	for _, agg := range totals {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (o *FinanceOps) SalesByCustomer(ctx context.Context, dateFrom, dateTo string, limit int) ([]CustomerSales, error) {
	dateFrom, dateTo = o.monthWindow(dateFrom, dateTo)
	if limit <= 0 {
		limit = 20
	}

	orders, err := o.conn.SearchRead(ctx, "sale.order", Domain{
		C("date_order", ">=", dateFrom+" 00:00:00"),
		C("date_order", "<=", dateTo+" 23:59:59"),
		C("state", "in", []string{"sale", "done"}),
	}, []string{"partner_id", "amount_total", "amount_untaxed"}, nil)
	if err != nil {
		return nil, err
	}

	totals := map[int64]*CustomerSales{}
	for _, order := range orders {
		cid := order.RelID("partner_id")
		if cid == 0 {
			continue
		}
		agg, ok := totals[cid]
		if !ok {
			agg = &CustomerSales{ID: cid, Customer: order.Rel("partner_id")}
			totals[cid] = agg
		}
		agg.Total += order.Float("amount_total")
		agg.OrderCount++
	}

	out := make([]CustomerSales, 0, len(totals))
	for _, agg := range totals {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
