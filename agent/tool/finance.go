package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/egware/erpagent/odoo"
)

// FinanceBindings exposes accounting, reporting, and sales tools.
func FinanceBindings(ops *odoo.FinanceOps) []Binding {
	return []Binding{
		{
			Info: &schema.ToolInfo{
				Name:        "get_financial_summary",
				Desc:        "Company financial position: receivables, payables, cash balance, and overdue totals.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.FinancialSummary(ctx)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "search_invoices",
				Desc: "Search customer invoices and vendor bills.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"partner_name":  {Type: schema.String, Desc: "Customer or vendor name (partial match)"},
					"state":         {Type: schema.String, Desc: "draft, posted, or cancel"},
					"move_type":     {Type: schema.String, Desc: "out_invoice, in_invoice, out_refund, or in_refund"},
					"date_from":     {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":       {Type: schema.String, Desc: "End date YYYY-MM-DD"},
					"payment_state": {Type: schema.String, Desc: "not_paid, partial, or paid"},
					"limit":         {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchInvoices(ctx, odoo.InvoiceFilter{
					PartnerName:  args.String("partner_name"),
					State:        args.String("state"),
					MoveType:     args.String("move_type"),
					DateFrom:     args.String("date_from"),
					DateTo:       args.String("date_to"),
					PaymentState: args.String("payment_state"),
					Limit:        args.IntOr("limit", 50),
				})
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_invoice_details",
				Desc: "Get one invoice with line items and matched payments.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"invoice_id": {Type: schema.Integer, Desc: "Invoice record id", Required: true},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.InvoiceDetails(ctx, args.Int("invoice_id"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_outstanding_invoices",
				Desc: "Unpaid customer invoices with days overdue.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"days_overdue": {Type: schema.Integer, Desc: "Minimum days past due, 0 for all unpaid"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.OutstandingInvoices(ctx, args.IntOr("days_overdue", 0))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "search_payments",
				Desc: "Search payment records.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"partner_name": {Type: schema.String, Desc: "Partner name (partial match)"},
					"payment_type": {Type: schema.String, Desc: "inbound or outbound"},
					"state":        {Type: schema.String, Desc: "draft, posted, or cancelled"},
					"date_from":    {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":      {Type: schema.String, Desc: "End date YYYY-MM-DD"},
					"limit":        {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchPayments(ctx, odoo.PaymentFilter{
					PartnerName: args.String("partner_name"),
					PaymentType: args.String("payment_type"),
					State:       args.String("state"),
					DateFrom:    args.String("date_from"),
					DateTo:      args.String("date_to"),
					Limit:       args.IntOr("limit", 50),
				})
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_payment_details",
				Desc: "Get one payment with any reconciled invoices.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"payment_id": {Type: schema.Integer, Desc: "Payment record id", Required: true},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.PaymentDetails(ctx, args.Int("payment_id"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_profit_loss_report",
				Desc: "Profit and loss with revenue and expense breakdowns. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.ProfitLoss(ctx, args.String("date_from"), args.String("date_to"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_cash_flow_summary",
				Desc: "Cash inflows and outflows by journal. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.CashFlow(ctx, args.String("date_from"), args.String("date_to"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_expense_analysis",
				Desc: "Expenses by category with percentages. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.ExpenseBreakdown(ctx, args.String("date_from"), args.String("date_to"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_revenue_analysis",
				Desc: "Revenue by account and customer. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.RevenueBreakdown(ctx, args.String("date_from"), args.String("date_to"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_journal_entries",
				Desc: "Search journal entries by journal and date range.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"journal_id": {Type: schema.Integer, Desc: "Journal id"},
					"date_from":  {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":    {Type: schema.String, Desc: "End date YYYY-MM-DD"},
					"limit":      {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchJournalEntries(ctx, args.Int("journal_id"),
					args.String("date_from"), args.String("date_to"), args.IntOr("limit", 50))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "create_journal_entry",
				Desc: "Create a journal entry. Debits and credits must balance.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"journal_id": {Type: schema.Integer, Desc: "Journal id", Required: true},
					"date":       {Type: schema.String, Desc: "Entry date YYYY-MM-DD", Required: true},
					"ref":        {Type: schema.String, Desc: "Reference or description", Required: true},
					"lines": {
						Type:     schema.Array,
						Desc:     "Entry lines with account_id, debit, credit, optional name and partner_id",
						Required: true,
						ElemInfo: &schema.ParameterInfo{
							Type: schema.Object,
							SubParams: map[string]*schema.ParameterInfo{
								"account_id": {Type: schema.Integer, Desc: "Account id", Required: true},
								"debit":      {Type: schema.Number, Desc: "Debit amount"},
								"credit":     {Type: schema.Number, Desc: "Credit amount"},
								"name":       {Type: schema.String, Desc: "Line label"},
								"partner_id": {Type: schema.Integer, Desc: "Partner id"},
							},
						},
					},
					"auto_post": {Type: schema.Boolean, Desc: "Post immediately instead of leaving a draft"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				var lines []odoo.JournalLine
				if err := args.Decode("lines", &lines); err != nil {
					return nil, err
				}
				return ops.CreateJournalEntry(ctx, args.Int("journal_id"),
					args.String("date"), args.String("ref"), lines, args.Bool("auto_post"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_journals",
				Desc: "List accounting journals.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"journal_type": {Type: schema.String, Desc: "sale, purchase, cash, bank, or general"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.Journals(ctx, args.String("journal_type"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_sales_summary",
				Desc: "Sales totals with top customers, products, and salespeople. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SalesSummary(ctx, args.String("date_from"), args.String("date_to"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "search_sales_orders",
				Desc: "Search sales orders.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"partner_name": {Type: schema.String, Desc: "Customer name (partial match)"},
					"state":        {Type: schema.String, Desc: "draft, sent, sale, done, or cancel"},
					"date_from":    {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":      {Type: schema.String, Desc: "End date YYYY-MM-DD"},
					"salesperson":  {Type: schema.String, Desc: "Salesperson name (partial match)"},
					"limit":        {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchSalesOrders(ctx, odoo.SalesOrderFilter{
					PartnerName: args.String("partner_name"),
					State:       args.String("state"),
					DateFrom:    args.String("date_from"),
					DateTo:      args.String("date_to"),
					Salesperson: args.String("salesperson"),
					Limit:       args.IntOr("limit", 50),
				})
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_sales_order_details",
				Desc: "Get one sales order with its lines.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"order_id": {Type: schema.Integer, Desc: "Sales order id", Required: true},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SalesOrderDetails(ctx, args.Int("order_id"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_top_selling_products",
				Desc: "Top products by revenue. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
					"limit":     {Type: schema.Integer, Desc: "Maximum products to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.TopSellingProducts(ctx, args.String("date_from"), args.String("date_to"), args.IntOr("limit", 20))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_sales_by_customer",
				Desc: "Sales totals grouped by customer. Defaults to the current month.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date_from": {Type: schema.String, Desc: "Start date YYYY-MM-DD"},
					"date_to":   {Type: schema.String, Desc: "End date YYYY-MM-DD"},
					"limit":     {Type: schema.Integer, Desc: "Maximum customers to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SalesByCustomer(ctx, args.String("date_from"), args.String("date_to"), args.IntOr("limit", 20))
			},
		},
	}
}
