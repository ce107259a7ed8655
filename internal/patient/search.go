package patient

import (
	"html"
	"regexp"
	"strings"
)

const SearchParam = "userInput"

var (
	nameAllowed = regexp.MustCompile(`^[\p{L}\p{M} '\-]+$`)
	sqlMeta     = regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|union|alter|create|exec|truncate)\b|<|>|=|--|;`)
)

// rules run one at a time so every violation is reported, not only the first.
// Length rules see the input only trimmed, before inner spaces are collapsed.
var (
	lengthRules  = []string{"min=2", "max=80"}
	patternRules = []string{"personname", "nosqlmeta"}
)

// ValidateSearchInput checks the name-search input. It returns the trimmed term
// to bind in the query, or a *ValidationError listing every failed rule.
// Messages echo the value HTML-escaped, never raw.
func ValidateSearchInput(raw string) (string, error) {
	term := cleanLine(raw)
	if term == "" {
		return "", &ValidationError{Fields: []FieldError{{
			Field: SearchParam, Rule: "required", Message: message("required", ""),
		}}}
	}
	escaped := html.EscapeString(term)
	var fields []FieldError
	check := func(value string, rules []string) {
		for _, rule := range rules {
			if err := validate.Var(value, rule); err != nil {
				tag, param, _ := strings.Cut(rule, "=")
				fields = append(fields, FieldError{
					Field:   SearchParam,
					Rule:    tag,
					Message: message(tag, param) + ": " + escaped,
				})
			}
		}
	}
	check(strings.TrimSpace(raw), lengthRules)
	check(term, patternRules)
	if len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}
	return term, nil
}
