package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// requiredFormValues reads the named form fields, failing closed when any is
// absent or blank instead of treating missing input as the empty string.
func requiredFormValues(r *http.Request, fields ...string) (map[string]string, error) {
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		v := strings.TrimSpace(r.FormValue(field))
		if v == "" {
			return nil, fmt.Errorf("missing form field %q", field)
		}
		values[field] = v
	}
	return values, nil
}

func formInt(values map[string]string, field string) (int, error) {
	n, err := strconv.Atoi(values[field])
	if err != nil {
		return 0, fmt.Errorf("field %q must be a number", field)
	}
	return n, nil
}

// optionalFormFloat parses a numeric filter bound, nil when the field was
// left empty.
func optionalFormFloat(r *http.Request, field string) (*float64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("field %q must be a number", field)
	}
	return &f, nil
}
