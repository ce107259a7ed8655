package patient

import (
	"strings"
	"time"

	"github.com/prontuario/patients/internal/repo"
)

const planDateLayout = "2006-01-02"

// MapPlans converts the client plans into stored entries. Plans are only kept
// when hasPlan is true; duplicates (same operadora and carteira) collapse to the first.
func MapPlans(hasPlan bool, in []PlanRequest) ([]repo.HealthPlanEntry, error) {
	out := []repo.HealthPlanEntry{}
	if !hasPlan || len(in) == 0 {
		return out, nil
	}
	seen := make(map[string]bool, len(in))
	for _, p := range in {
		e := repo.HealthPlanEntry{
			Provider:   strings.ToUpper(strings.TrimSpace(p.Provider)),
			Product:    strings.TrimSpace(p.Product),
			CardNumber: onlyDigits(p.CardNumber),
		}
		if p.ValidUntil != "" {
			t, err := time.Parse(planDateLayout, p.ValidUntil)
			if err != nil {
				return nil, &ValidationError{Fields: []FieldError{{
					Field: "planos.validade", Rule: "datetime", Message: message("datetime", planDateLayout),
				}}}
			}
			e.ValidUntil = &t
		}
		key := e.Provider + "|" + e.CardNumber
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out, nil
}
