package pricing

// Amounts are expressed in minor units (cents) using int64.

type Plan string

const (
	PlanFree         Plan = "free"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Plans in display order.
var Plans = []Plan{PlanFree, PlanStarter, PlanProfessional, PlanEnterprise}

func ParsePlan(s string) (Plan, bool) {
	for _, p := range Plans {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// PlanSpec is the monthly rent and sub-account quota of a plan.
type PlanSpec struct {
	Plan         Plan  `json:"plan"`
	MonthlyMinor int64 `json:"monthly_minor"`
	MaxSubs      int   `json:"max_subs"`
}

// Rates holds every price the platform charges.
type Rates struct {
	Plans              map[Plan]PlanSpec
	NumberMonthlyMinor int64

	// SMSPriceMinor is debited per outbound message; 0 disables per-message charging.
	SMSPriceMinor int64
}

// DefaultRates: starter 9.00, professional 19.00, enterprise 49.00, number 2.50 per month.
func DefaultRates() Rates {
	return NewRates(900, 1900, 4900, 250, 0)
}

func NewRates(starter, professional, enterprise, numberMonthly, sms int64) Rates {
	return Rates{
		Plans: map[Plan]PlanSpec{
			PlanFree:         {Plan: PlanFree, MonthlyMinor: 0, MaxSubs: 0},
			PlanStarter:      {Plan: PlanStarter, MonthlyMinor: starter, MaxSubs: 1},
			PlanProfessional: {Plan: PlanProfessional, MonthlyMinor: professional, MaxSubs: 3},
			PlanEnterprise:   {Plan: PlanEnterprise, MonthlyMinor: enterprise, MaxSubs: 5},
		},
		NumberMonthlyMinor: numberMonthly,
		SMSPriceMinor:      sms,
	}
}
