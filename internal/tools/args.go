// internal/tools/args.go
package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mwiater/canvasmcp/internal/canvas"
)

func stringArg(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intArg reads an integer argument, accepting JSON numbers and numeric strings.
// A missing or null argument yields def.
func intArg(args map[string]any, name string, def int64) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || val >= math.MaxInt64 || val < math.MinInt64 {
			return 0, badInteger(name, v)
		}
		return int64(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, badInteger(name, v)
		}
		return n, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return def, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, badInteger(name, v)
		}
		return n, nil
	}
	return 0, badInteger(name, v)
}

func badInteger(name string, v any) error {
	return &canvas.Error{Kind: canvas.KindInvalidArgument, Message: name + " must be an integer (got " + strconv.Quote(stringify(v)) + ")"}
}

func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
