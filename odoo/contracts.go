package odoo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Contract module detection order. OCA Contract first, then Odoo
// Enterprise Subscription, then the analytic-account fallback used by
// older installations.
var contractCandidates = []contractCapability{
	{Model: "contract.contract", StartField: "date_start", EndField: "date_end", HasState: true, HasDates: true},
	{Model: "sale.subscription", StartField: "date_start", EndField: "date", HasState: true, HasDates: true},
	{Model: "account.analytic.account", StartField: "create_date", EndField: "create_date", HasState: false, HasDates: false},
}

// Quotations still carry partner and validity dates, so sale.order is a
// usable last resort when no contract module is installed.
var contractFallback = contractCapability{
	Model: "sale.order", StartField: "date_order", EndField: "validity_date", HasState: true, HasDates: true,
}

type contractCapability struct {
	Model      string
	StartField string
	EndField   string
	HasState   bool
	HasDates   bool
}

// ContractOps exposes contract management operations. The backing model
// is detected on first use and cached for the lifetime of the value.
type ContractOps struct {
	conn Conn
	now  func() time.Time

	mu  sync.Mutex
	cap *contractCapability
}

func NewContractOps(conn Conn) *ContractOps {
	return &ContractOps{conn: conn, now: time.Now}
}

func (o *ContractOps) capability(ctx context.Context) (contractCapability, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cap != nil {
		return *o.cap, nil
	}

	for _, cand := range contractCandidates {
		exists, err := o.conn.ModelExists(ctx, cand.Model)
		if err != nil {
			return contractCapability{}, fmt.Errorf("detect contract model: %w", err)
		}
		if exists {
			log.Info().Str("model", cand.Model).Msg("detected contract model")
			o.cap = &cand
			return cand, nil
		}
	}

	log.Warn().Msg("no dedicated contract module found, falling back to sale.order")
	fb := contractFallback
	o.cap = &fb
	return fb, nil
}

// ContractFilter narrows SearchContracts. ExpiringWithinDays < 0 means
// no expiry constraint.
type ContractFilter struct {
	PartnerName        string
	State              string
	ExpiringWithinDays int
	Limit              int
}

func (o *ContractOps) SearchContracts(ctx context.Context, filter ContractFilter) ([]Record, error) {
	cap, err := o.capability(ctx)
	if err != nil {
		return nil, err
	}

	domain := Domain{}
	if filter.PartnerName != "" {
		domain = append(domain, C("partner_id.name", "ilike", filter.PartnerName))
	}
	if filter.State != "" && cap.HasState {
		domain = append(domain, C("state", "=", filter.State))
	}
	if filter.ExpiringWithinDays >= 0 && cap.HasDates {
		today := o.now().Format("2006-01-02")
		horizon := o.now().AddDate(0, 0, filter.ExpiringWithinDays).Format("2006-01-02")
		domain = append(domain, C(cap.EndField, "<=", horizon), C(cap.EndField, ">=", today))
	}

	fields := []string{"name", "partner_id", "company_id"}
	if cap.HasState {
		fields = append(fields, "state")
	}
	if cap.HasDates {
		fields = append(fields, cap.StartField, cap.EndField)
	}
	switch cap.Model {
	case "contract.contract":
		fields = append(fields, "recurring_next_date", "recurring_interval", "recurring_rule_type")
	case "sale.subscription":
		fields = append(fields, "recurring_total", "template_id")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	order := "name asc"
	if cap.HasDates {
		order = cap.EndField + " asc"
	}

	records, err := o.conn.SearchRead(ctx, cap.Model, domain, fields, &QueryOptions{Limit: limit, Order: order})
	if err == nil {
		return records, nil
	}

	// Custom fields vary between installations; retry with the minimal set.
	log.Warn().Err(err).Str("model", cap.Model).Msg("contract search failed, retrying with basic fields")
	fallback := []string{"name", "partner_id"}
	if cap.HasState {
		fallback = append(fallback, "state")
	}
	return o.conn.SearchRead(ctx, cap.Model, domain, fallback, &QueryOptions{Limit: limit})
}

// ContractDetails returns the full record, with contract lines attached
// when the OCA Contract module is installed.
func (o *ContractOps) ContractDetails(ctx context.Context, contractID int64) (Record, error) {
	cap, err := o.capability(ctx)
	if err != nil {
		return nil, err
	}

	records, err := o.conn.Read(ctx, cap.Model, []int64{contractID}, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: contract id=%d", ErrNotFound, contractID)
	}

	contract := records[0]
	if cap.Model == "contract.contract" {
		lines, err := o.conn.SearchRead(ctx, "contract.line",
			Domain{C("contract_id", "=", contractID)},
			[]string{"name", "product_id", "quantity", "price_unit", "price_subtotal"}, nil)
		if err != nil {
			return nil, err
		}
		contract["contract_lines"] = lines
	}
	return contract, nil
}

// ExpiringContract is a contract approaching its end date, tagged with
// an urgency band for downstream alerting.
type ExpiringContract struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Partner  string `json:"partner"`
	EndDate  string `json:"end_date"`
	DaysLeft int    `json:"days_left"`
	Urgency  string `json:"urgency"`
}

// UrgencyFor bands days-until-expiry into alert levels.
func UrgencyFor(daysLeft int) string {
	switch {
	case daysLeft <= 7:
		return "CRITICAL"
	case daysLeft <= 14:
		return "URGENT"
	default:
		return "WARNING"
	}
}

func (o *ContractOps) ExpiringContracts(ctx context.Context, days int) ([]ExpiringContract, error) {
	cap, err := o.capability(ctx)
	if err != nil {
		return nil, err
	}
	if !cap.HasDates {
		log.Info().Str("model", cap.Model).Msg("contract model has no date fields, skipping expiry scan")
		return nil, fmt.Errorf("%s does not track contract dates: %w", cap.Model, ErrModelUnmatched)
	}

	records, err := o.SearchContracts(ctx, ContractFilter{ExpiringWithinDays: days})
	if err != nil {
		return nil, err
	}

	// Anchor on the local calendar date so the day count matches what
	// a user in the deployment timezone would compute.
	y, m, d := o.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	out := make([]ExpiringContract, 0, len(records))
	for _, rec := range records {
		item := ExpiringContract{
			ID:      rec.Int("id"),
			Name:    rec.Str("name"),
			Partner: rec.Rel("partner_id"),
			EndDate: rec.Str(cap.EndField),
		}
		if end, err := time.Parse("2006-01-02", item.EndDate); err == nil {
			item.DaysLeft = int(end.Sub(today).Hours() / 24)
		}
		item.Urgency = UrgencyFor(item.DaysLeft)
		out = append(out, item)
	}
	return out, nil
}

func (o *ContractOps) CreateContract(ctx context.Context, name string, partnerID int64, dateStart, dateEnd string, extra map[string]any) (Record, error) {
	cap, err := o.capability(ctx)
	if err != nil {
		return nil, err
	}

	values := map[string]any{
		"name":         name,
		"partner_id":   partnerID,
		cap.StartField: dateStart,
	}
	if dateEnd != "" {
		values[cap.EndField] = dateEnd
	}
	for k, v := range extra {
		values[k] = v
	}

	id, err := o.conn.Create(ctx, cap.Model, values)
	if err != nil {
		return nil, err
	}
	return Record{
		"id":         id,
		"name":       name,
		"partner_id": partnerID,
		"date_start": dateStart,
		"date_end":   dateEnd,
	}, nil
}

func (o *ContractOps) UpdateContract(ctx context.Context, contractID int64, updates map[string]any) error {
	cap, err := o.capability(ctx)
	if err != nil {
		return err
	}
	return o.conn.Write(ctx, cap.Model, []int64{contractID}, updates)
}

// ContractSummary aggregates counts across the installed contract model.
type ContractSummary struct {
	Total        int            `json:"total"`
	ByState      map[string]int `json:"by_state"`
	ExpiringSoon int            `json:"expiring_soon"`
	StateNote    string         `json:"state_note,omitempty"`
}

func (o *ContractOps) Summary(ctx context.Context) (ContractSummary, error) {
	cap, err := o.capability(ctx)
	if err != nil {
		return ContractSummary{}, err
	}

	summary := ContractSummary{ByState: map[string]int{}}

	total, err := o.conn.SearchCount(ctx, cap.Model, Domain{})
	if err != nil {
		return ContractSummary{}, err
	}
	summary.Total = total

	if cap.HasState {
		for _, state := range []string{"draft", "open", "close", "cancelled"} {
			count, err := o.conn.SearchCount(ctx, cap.Model, Domain{C("state", "=", state)})
			if err != nil {
				count = 0
			}
			summary.ByState[state] = count
		}
	} else {
		summary.StateNote = "State tracking not available for this model"
	}

	if cap.HasDates {
		today := o.now().Format("2006-01-02")
		horizon := o.now().AddDate(0, 0, 30).Format("2006-01-02")
		count, err := o.conn.SearchCount(ctx, cap.Model, Domain{
			C(cap.EndField, "<=", horizon),
			C(cap.EndField, ">=", today),
		})
		if err == nil {
			summary.ExpiringSoon = count
		}
	}

	return summary, nil
}

func (o *ContractOps) PartnerContracts(ctx context.Context, partnerID int64) ([]Record, error) {
	cap, err := o.capability(ctx)
	if err != nil {
		return nil, err
	}
	return o.conn.SearchRead(ctx, cap.Model, Domain{C("partner_id", "=", partnerID)}, nil, &QueryOptions{Order: "create_date desc"})
}

// SearchPartners looks up customers/vendors by name.
func (o *ContractOps) SearchPartners(ctx context.Context, name string, limit int) ([]Record, error) {
	domain := Domain{}
	if name != "" {
		domain = append(domain, C("name", "ilike", name))
	}
	if limit <= 0 {
		limit = 20
	}
	return o.conn.SearchRead(ctx, "res.partner", domain,
		[]string{"name", "email", "phone", "is_company", "customer_rank", "supplier_rank"},
		&QueryOptions{Limit: limit, Order: "name asc"})
}
