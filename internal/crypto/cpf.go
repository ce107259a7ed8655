package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var onlyDigits = regexp.MustCompile(`[^0-9]`)

// NormalizeCPF remove tudo que não for dígito (11 dígitos).
func NormalizeCPF(cpf string) string {
	return onlyDigits.ReplaceAllString(cpf, "")
}

// CPFHash retorna SHA-256 do CPF normalizado em hex.
func CPFHash(cpfNormalized string) string {
	h := sha256.Sum256([]byte(cpfNormalized))
	return hex.EncodeToString(h[:])
}

// ValidCPF checks the two verification digits of a CPF. Punctuation is ignored;
// sequences of a single repeated digit are rejected.
func ValidCPF(cpf string) bool {
	n := NormalizeCPF(cpf)
	if len(n) != 11 {
		return false
	}
	same := true
	for i := 1; i < 11; i++ {
		if n[i] != n[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}
	return cpfDigit(n[:9], 10) == int(n[9]-'0') && cpfDigit(n[:10], 11) == int(n[10]-'0')
}

func cpfDigit(digits string, weight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}
