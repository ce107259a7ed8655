package patient

import (
	"strings"
	"unicode"

	"github.com/prontuario/patients/internal/crypto"
)

// cleanLine removes control characters and collapses runs of whitespace.
func cleanLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// cleanText is cleanLine for multi-line free text: keeps \n and \t.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == '\r' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanEmail(s string) string {
	return strings.ToLower(strings.ReplaceAll(cleanLine(s), " ", ""))
}

// SanitizeAddress normaliza CEP (só dígitos) e UF (maiúscula).
func SanitizeAddress(a AddressRequest) AddressRequest {
	return AddressRequest{
		CEP:        onlyDigits(a.CEP),
		Street:     cleanLine(a.Street),
		State:      strings.ToUpper(cleanLine(a.State)),
		Number:     cleanLine(a.Number),
		Complement: cleanLine(a.Complement),
	}
}

func sanitizePlans(in []PlanRequest) []PlanRequest {
	if in == nil {
		return nil
	}
	out := make([]PlanRequest, len(in))
	for i, p := range in {
		out[i] = PlanRequest{
			Provider:   cleanLine(p.Provider),
			Product:    cleanLine(p.Product),
			CardNumber: onlyDigits(p.CardNumber),
			ValidUntil: strings.TrimSpace(p.ValidUntil),
		}
	}
	return out
}

// SanitizeCreate returns a cleaned copy of req. The password is left untouched.
func SanitizeCreate(req CreatePatientRequest) CreatePatientRequest {
	out := req
	out.CPF = crypto.NormalizeCPF(req.CPF)
	out.Name = cleanLine(req.Name)
	out.Email = cleanEmail(req.Email)
	out.Phone = onlyDigits(req.Phone)
	out.History = cleanText(req.History)
	out.ImageID = strings.TrimSpace(req.ImageID)
	out.Plans = sanitizePlans(req.Plans)
	if req.Address != nil {
		a := SanitizeAddress(*req.Address)
		out.Address = &a
	}
	return out
}

func SanitizeUpdate(req UpdatePatientRequest) UpdatePatientRequest {
	out := req
	out.CPF = crypto.NormalizeCPF(req.CPF)
	out.Name = cleanLine(req.Name)
	out.Email = cleanEmail(req.Email)
	out.Phone = onlyDigits(req.Phone)
	out.History = cleanText(req.History)
	out.ImageID = strings.TrimSpace(req.ImageID)
	out.Plans = sanitizePlans(req.Plans)
	return out
}
