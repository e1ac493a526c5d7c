package pricing

import (
	"errors"
)

var ErrUnknownPlan = errors.New("unknown plan")

// Service answers price questions. Pure calculation, no persistence.
type Service struct {
	rates Rates
}

func NewService(rates Rates) *Service {
	return &Service{rates: rates}
}

func (s *Service) Plan(p Plan) (PlanSpec, error) {
	spec, ok := s.rates.Plans[p]
	if !ok {
		return PlanSpec{}, ErrUnknownPlan
	}
	return spec, nil
}

// PlanRent returns 0 for unknown or empty plans, which are treated as free.
func (s *Service) PlanRent(p Plan) int64 {
	return s.rates.Plans[p].MonthlyMinor
}

// MaxSubs returns the sub-account quota of p; unknown plans get none.
func (s *Service) MaxSubs(p Plan) int {
	return s.rates.Plans[p].MaxSubs
}

func (s *Service) NumberRent() int64 { return s.rates.NumberMonthlyMinor }

func (s *Service) SMSPrice() int64 { return s.rates.SMSPriceMinor }

func (s *Service) Catalog() []PlanSpec {
	out := make([]PlanSpec, 0, len(Plans))
	for _, p := range Plans {
		if spec, ok := s.rates.Plans[p]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// MonthlyQuote is the recurring cost of a plan plus numberCount rented numbers.
type MonthlyQuote struct {
	Plan          Plan
	PlanMinor     int64
	ResourceMinor int64
	TotalMinor    int64
}

func (s *Service) Quote(p Plan, numberCount int) MonthlyQuote {
	if numberCount < 0 {
		numberCount = 0
	}
	q := MonthlyQuote{
		Plan:          p,
		PlanMinor:     s.PlanRent(p),
		ResourceMinor: s.rates.NumberMonthlyMinor * int64(numberCount),
	}
	q.TotalMinor = q.PlanMinor + q.ResourceMinor
	return q
}
