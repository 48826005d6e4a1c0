package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/egware/erpagent/odoo"
)

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func floatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s *Server) opsError(c *gin.Context, err error) {
	if errors.Is(err, odoo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("erp request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) listContracts(c *gin.Context) {
	filter := odoo.ContractFilter{
		PartnerName:        c.Query("partner"),
		State:              c.Query("state"),
		ExpiringWithinDays: intQuery(c, "expiring_days", -1),
		Limit:              intQuery(c, "limit", 20),
	}
	records, err := s.deps.Contracts.SearchContracts(c.Request.Context(), filter)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": records, "count": len(records)})
}

func (s *Server) expiringContracts(c *gin.Context) {
	days := intQuery(c, "days", 30)
	expiring, err := s.deps.Contracts.ExpiringContracts(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, odoo.ErrModelUnmatched) {
			c.JSON(http.StatusOK, gin.H{
				"contracts":       []any{},
				"count":           0,
				"supports_expiry": false,
				"message":         "no contract model with date tracking is installed",
			})
			return
		}
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contracts":       expiring,
		"count":           len(expiring),
		"supports_expiry": true,
	})
}

func (s *Server) contractSummary(c *gin.Context) {
	summary, err := s.deps.Contracts.Summary(c.Request.Context())
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) contractDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}
	record, err := s.deps.Contracts.ContractDetails(c.Request.Context(), id)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type createContractRequest struct {
	Name      string         `json:"name" binding:"required"`
	PartnerID int64          `json:"partner_id" binding:"required"`
	DateStart string         `json:"date_start"`
	DateEnd   string         `json:"date_end"`
	Extra     map[string]any `json:"extra"`
}

func (s *Server) createContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := s.deps.Contracts.CreateContract(c.Request.Context(), req.Name, req.PartnerID, req.DateStart, req.DateEnd, req.Extra)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) listEmployees(c *gin.Context) {
	filter := odoo.EmployeeFilter{
		Name:       c.Query("name"),
		Department: c.Query("department"),
		Limit:      intQuery(c, "limit", 20),
	}
	records, err := s.deps.HR.SearchEmployees(c.Request.Context(), filter)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": records, "count": len(records)})
}

func (s *Server) employeeDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}
	record, err := s.deps.HR.EmployeeDetails(c.Request.Context(), id)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) listDepartments(c *gin.Context) {
	records, err := s.deps.HR.Departments(c.Request.Context())
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": records, "count": len(records)})
}

func (s *Server) pendingLeaves(c *gin.Context) {
	records, err := s.deps.HR.PendingLeaveRequests(c.Request.Context(),
		int64(intQuery(c, "manager_id", 0)),
		int64(intQuery(c, "department_id", 0)))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leave_requests": records, "count": len(records)})
}

func (s *Server) listJobs(c *gin.Context) {
	publishedOnly := c.DefaultQuery("published_only", "true") == "true"
	records, err := s.deps.HR.JobPositions(c.Request.Context(), publishedOnly)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": records, "count": len(records)})
}

func (s *Server) financialSummary(c *gin.Context) {
	summary, err := s.deps.Finance.FinancialSummary(c.Request.Context())
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) listInvoices(c *gin.Context) {
	filter := odoo.InvoiceFilter{
		PartnerName: c.Query("partner"),
		State:       c.Query("state"),
		DateFrom:    c.Query("date_from"),
		DateTo:      c.Query("date_to"),
		Limit:       intQuery(c, "limit", 20),
	}
	records, err := s.deps.Finance.SearchInvoices(c.Request.Context(), filter)
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": records, "count": len(records)})
}

func (s *Server) outstandingInvoices(c *gin.Context) {
	records, err := s.deps.Finance.OutstandingInvoices(c.Request.Context(), intQuery(c, "days_overdue", 0))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": records, "count": len(records)})
}

func (s *Server) profitLossReport(c *gin.Context) {
	report, err := s.deps.Finance.ProfitLoss(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) cashFlowReport(c *gin.Context) {
	report, err := s.deps.Finance.CashFlow(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) expenseReport(c *gin.Context) {
	report, err := s.deps.Finance.ExpenseBreakdown(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) revenueReport(c *gin.Context) {
	report, err := s.deps.Finance.RevenueBreakdown(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) financeAlerts(c *gin.Context) {
	report, err := s.deps.Finance.AllAlerts(c.Request.Context(),
		intQuery(c, "overdue_days", 30),
		floatQuery(c, "cash_threshold", 10000),
		floatQuery(c, "transaction_threshold", 10000))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) salesSummary(c *gin.Context) {
	summary, err := s.deps.Finance.SalesSummary(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		s.opsError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
