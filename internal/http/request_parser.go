package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"miadmin/internal/core"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 16 << 20
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams reads year and month from the query, defaulting each to
// the month of now. Present but malformed values are an error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return params, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// parseDateParam parses an optional YYYY-MM-DD query value in loc. A missing
// value gives the zero time.
func parseDateParam(query url.Values, key string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s %q, want YYYY-MM-DD", errBadRequest, key, v)
	}
	return t, nil
}

// parseLimit reads ?limit=n. Missing means def; negative means no limit.
func parseLimit(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid limit %q", errBadRequest, v)
	}
	return n, nil
}

func parseDirection(query url.Values) (core.Direction, error) {
	d := core.Direction(strings.TrimSpace(query.Get("direction")))
	if d != "" && !d.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidDirection, d)
	}
	return d, nil
}

// decodeJSON reads one JSON value from the body into v, rejecting unknown
// fields and trailing data. Amount errors keep their validation identity.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}
