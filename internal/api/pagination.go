package api

import (
	"errors"
	"net/http"
	"strconv"
)

const defaultLimit = 20
const maxLimit = 100

var errBadPage = errors.New("limit and offset must be non-negative integers")

// ParseLimitOffset reads limit and offset from query params. Default limit is 20, max 100;
// limit=0 also means the default. Non-numeric or negative values are an error.
func ParseLimitOffset(r *http.Request) (limit, offset int, err error) {
	limit = defaultLimit
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 0 {
			return 0, 0, errBadPage
		}
		if n > 0 {
			limit = n
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	if s := q.Get("offset"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 0 {
			return 0, 0, errBadPage
		}
		offset = n
	}
	return limit, offset, nil
}
