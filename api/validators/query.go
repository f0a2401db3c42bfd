package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

// ParseQueryInt reads key as an int in [min, max], returning def when absent.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be an integer", key).
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if n < min || n > max {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be between %d and %d", key, min, max).
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return n, nil
}

// ParseQueryBool reads key as a tri-state flag: nil when absent.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be true or false", key).
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return &v, nil
}

func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
