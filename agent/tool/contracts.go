package tool

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/egware/erpagent/odoo"
)

// ContractBindings exposes contract management tools.
func ContractBindings(ops *odoo.ContractOps) []Binding {
	return []Binding{
		{
			Info: &schema.ToolInfo{
				Name: "search_contracts",
				Desc: "Search contracts by customer name, state, or upcoming expiry.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"partner_name":         {Type: schema.String, Desc: "Customer or vendor name (partial match)"},
					"state":                {Type: schema.String, Desc: "Contract state, e.g. draft, open, close"},
					"expiring_within_days": {Type: schema.Integer, Desc: "Only contracts expiring within N days"},
					"limit":                {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchContracts(ctx, odoo.ContractFilter{
					PartnerName:        args.String("partner_name"),
					State:              args.String("state"),
					ExpiringWithinDays: args.IntOr("expiring_within_days", -1),
					Limit:              args.IntOr("limit", 100),
				})
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_contract_details",
				Desc: "Get full details of one contract, including line items.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"contract_id": {Type: schema.Integer, Desc: "Contract record id", Required: true},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.ContractDetails(ctx, args.Int("contract_id"))
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "get_expiring_contracts",
				Desc: "List contracts expiring soon, with days left and urgency.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"days": {Type: schema.Integer, Desc: "Look-ahead window in days, default 30"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				expiring, err := ops.ExpiringContracts(ctx, args.IntOr("days", 30))
				if errors.Is(err, odoo.ErrModelUnmatched) {
					return map[string]any{
						"supports_expiry": false,
						"message":         "the installed contract model does not track expiry dates",
					}, nil
				}
				if err != nil {
					return nil, err
				}
				return expiring, nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name:        "generate_contract_report",
				Desc:        "Summary of all contracts: totals, counts by state, and expiring soon.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.Summary(ctx)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: "search_partners",
				Desc: "Find customers or vendors by name.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"name":  {Type: schema.String, Desc: "Partner name (partial match)", Required: true},
					"limit": {Type: schema.Integer, Desc: "Maximum records to return"},
				}),
			},
			Run: func(ctx context.Context, args Args) (any, error) {
				return ops.SearchPartners(ctx, args.String("name"), args.IntOr("limit", 20))
			},
		},
	}
}
