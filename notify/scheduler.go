package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/egware/erpagent/odoo"
	logx "github.com/egware/erpagent/pkg/logger"
)

type Config struct {
	ChatIDs              []int64       `split_words:"true"`
	ContractInterval     time.Duration `split_words:"true" default:"1h"`
	LeaveInterval        time.Duration `split_words:"true" default:"30m"`
	FinanceInterval      time.Duration `split_words:"true" default:"4h"`
	ExpiryWindowDays     int           `split_words:"true" default:"7"`
	OverdueDays          int           `split_words:"true" default:"30"`
	CashThreshold        float64       `split_words:"true" default:"10000"`
	TransactionThreshold float64       `split_words:"true" default:"10000"`
}

// Sender pushes a notification to one chat. *telegram.Bot satisfies it.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler runs periodic ERP checks and pushes alerts to the
// configured chats. Each check runs once at start, then on its ticker.
type Scheduler struct {
	cfg       Config
	contracts *odoo.ContractOps
	hr        *odoo.HROps
	finance   *odoo.FinanceOps
	sender    Sender
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	notified map[string]time.Time
}

// Dedupe entries older than this are dropped. Longer than any check
// interval, so a key is never re-announced while still current, but
// stale daily keys cannot pile up on a long-lived bot.
const dedupeRetention = 7 * 24 * time.Hour

func NewScheduler(cfg Config, contracts *odoo.ContractOps, hr *odoo.HROps, finance *odoo.FinanceOps, sender Sender) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		contracts: contracts,
		hr:        hr,
		finance:   finance,
		sender:    sender,
		log:       logx.Component("notify"),
		now:       time.Now,
		notified:  make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	loops := []struct {
		name     string
		interval time.Duration
		check    func(context.Context)
	}{
		{"expiring_contracts", s.cfg.ContractInterval, s.checkExpiringContracts},
		{"pending_leaves", s.cfg.LeaveInterval, s.checkPendingLeaves},
		{"finance_alerts", s.cfg.FinanceInterval, s.checkFinanceAlerts},
	}

	for _, loop := range loops {
		wg.Add(1)
		go func(name string, interval time.Duration, check func(context.Context)) {
			defer wg.Done()
			s.log.Info().Str("check", name).Dur("interval", interval).Msg("scheduler loop started")
			check(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					check(ctx)
				}
			}
		}(loop.name, loop.interval, loop.check)
	}

	wg.Wait()
	return ctx.Err()
}

// once reports whether key has already triggered a notification and
// marks it. Keys include the relevant date so a renewed contract
// alerts again on its next expiry. Expired entries are pruned on each
// call to keep the map bounded.
func (s *Scheduler) once(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, seen := range s.notified {
		if now.Sub(seen) > dedupeRetention {
			delete(s.notified, k)
		}
	}
	if _, seen := s.notified[key]; seen {
		return false
	}
	s.notified[key] = now
	return true
}

func (s *Scheduler) broadcast(text string) {
	for _, chatID := range s.cfg.ChatIDs {
		if err := s.sender.SendMessage(chatID, text); err != nil {
			s.log.Error().Err(err).Int64("chat_id", chatID).Msg("notification send failed")
		}
	}
}

func (s *Scheduler) checkExpiringContracts(ctx context.Context) {
	if s.contracts == nil {
		return
	}
	expiring, err := s.contracts.ExpiringContracts(ctx, s.cfg.ExpiryWindowDays)
	if err != nil {
		if errors.Is(err, odoo.ErrModelUnmatched) {
			// Installation without date tracking, nothing to watch.
			return
		}
		s.log.Error().Err(err).Msg("expiring contract check failed")
		return
	}
	for _, c := range expiring {
		key := fmt.Sprintf("contract:%d:%s", c.ID, c.EndDate)
		if !s.once(key) {
			continue
		}
		s.broadcast(fmt.Sprintf(
			"Contract Expiry Alert (%s)\n\nContract: %s (ID: %d)\nPartner: %s\nExpires in: %d days\n\nPlease review and take appropriate action.",
			c.Urgency, c.Name, c.ID, c.Partner, c.DaysLeft))
	}
	if len(expiring) > 0 {
		s.log.Info().Int("count", len(expiring)).Msg("expiring contracts found")
	}
}

func (s *Scheduler) checkPendingLeaves(ctx context.Context) {
	if s.hr == nil {
		return
	}
	pending, err := s.hr.PendingLeaveRequests(ctx, 0, 0)
	if err != nil {
		s.log.Error().Err(err).Msg("pending leave check failed")
		return
	}
	if len(pending) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pending Leave Requests: %d\n", len(pending))
	for i, rec := range pending {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(pending)-i)
			break
		}
		fmt.Fprintf(&b, "- %s: %s (%s to %s)\n",
			rec.Rel("employee_id"), rec.Rel("holiday_status_id"),
			rec.Str("request_date_from"), rec.Str("request_date_to"))
	}

	key := fmt.Sprintf("leaves:%d:%s", len(pending), time.Now().Format("2006-01-02"))
	if s.once(key) {
		s.broadcast(b.String())
	}
}

func (s *Scheduler) checkFinanceAlerts(ctx context.Context) {
	if s.finance == nil {
		return
	}
	report, err := s.finance.AllAlerts(ctx, s.cfg.OverdueDays, s.cfg.CashThreshold, s.cfg.TransactionThreshold)
	if err != nil {
		s.log.Error().Err(err).Msg("finance alert check failed")
		return
	}
	if report.TotalAlerts == 0 {
		return
	}

	all := make([]odoo.Alert, 0, report.TotalAlerts)
	all = append(all, report.OverdueInvoices...)
	all = append(all, report.CashFlow...)
	all = append(all, report.LargeTransactions...)

	var b strings.Builder
	fmt.Fprintf(&b, "Finance Alerts: %d\n", report.TotalAlerts)
	for i, a := range all {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(all)-i)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", strings.ToUpper(a.Priority), a.Message)
	}

	key := fmt.Sprintf("finance:%d:%s", report.TotalAlerts, time.Now().Format("2006-01-02"))
	if s.once(key) {
		s.broadcast(b.String())
	}
}
