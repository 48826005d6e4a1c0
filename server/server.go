package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/egware/erpagent/agent"
	"github.com/egware/erpagent/odoo"
	logx "github.com/egware/erpagent/pkg/logger"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

type Config struct {
	Addr            string        `default:":8000"`
	Debug           bool          `default:"false"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// Conversation handles one user turn end to end and returns the
// assistant reply for the thread.
type Conversation interface {
	HandleMessage(ctx context.Context, threadID, text string) (agent.Reply, error)
}

// ERPChecker reports whether the ERP backend accepts our credentials.
type ERPChecker interface {
	Authenticate(ctx context.Context) (int64, error)
}

// Deps carries everything the HTTP layer delegates to. Webhook is
// optional; when nil the Telegram webhook route is not registered.
type Deps struct {
	Conversation Conversation
	Contracts    *odoo.ContractOps
	HR           *odoo.HROps
	Finance      *odoo.FinanceOps
	ERP          ERPChecker
	Webhook      gin.HandlerFunc
}

type Server struct {
	cfg    Config
	deps   Deps
	engine *gin.Engine
	log    zerolog.Logger
}

func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Conversation == nil {
		return nil, errors.New("server: conversation handler is required")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: gin.New(),
		log:    logx.Component("server"),
	}
	s.engine.Use(gin.Recovery(), s.requestLog())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/health/detailed", s.healthDetailed)

	api := s.engine.Group("/api/v1")
	api.POST("/chat", s.chat)
	api.GET("/agents/status", s.agentsStatus)

	if s.deps.Contracts != nil {
		c := api.Group("/contracts")
		c.GET("", s.listContracts)
		c.GET("/expiring", s.expiringContracts)
		c.GET("/summary", s.contractSummary)
		c.GET("/:id", s.contractDetails)
		c.POST("", s.createContract)
	}

	if s.deps.HR != nil {
		h := api.Group("/hr")
		h.GET("/employees", s.listEmployees)
		h.GET("/employees/:id", s.employeeDetails)
		h.GET("/departments", s.listDepartments)
		h.GET("/leaves/pending", s.pendingLeaves)
		h.GET("/jobs", s.listJobs)
	}

	if s.deps.Finance != nil {
		f := api.Group("/finance")
		f.GET("/summary", s.financialSummary)
		f.GET("/invoices", s.listInvoices)
		f.GET("/invoices/outstanding", s.outstandingInvoices)
		f.GET("/reports/profit-loss", s.profitLossReport)
		f.GET("/reports/cash-flow", s.cashFlowReport)
		f.GET("/reports/expenses", s.expenseReport)
		f.GET("/reports/revenue", s.revenueReport)
		f.GET("/alerts", s.financeAlerts)
		f.GET("/sales/summary", s.salesSummary)
	}

	if s.deps.Webhook != nil {
		s.engine.POST("/telegram/webhook", s.deps.Webhook)
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
