package markers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy decides which coordinate values are usable.
type Policy string

const (
	// PolicyTruthy drops any falsy value: missing, nil, "", false and numeric 0. A marker
	// exactly on the equator or the prime meridian is therefore never drawn; existing
	// configurations depend on it. A non-empty string such as "0" is truthy and kept.
	PolicyTruthy Policy = "truthy"

	// PolicyFinite accepts every finite number, zero included.
	PolicyFinite Policy = "finite"
)

func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(PolicyTruthy):
		return PolicyTruthy, nil
	case string(PolicyFinite):
		return PolicyFinite, nil
	default:
		return "", fmt.Errorf("unknown coordinate policy %q", raw)
	}
}

func (p Policy) coordinate(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if _, isString := v.(string); f == 0 && !isString && p != PolicyFinite {
		return 0, false
	}
	return f, true
}

// toFloat converts the numeric representations produced by the record backends.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseFloat(t)
	case pgtype.Numeric:
		if !t.Valid {
			return 0, false
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	case primitive.Decimal128:
		return parseFloat(t.String())
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
