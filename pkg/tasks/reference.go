package tasks

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/petrijr/expressflow/pkg/api"
)

// DefaultThreshold is the minimum accepted by the reference threshold task.
const DefaultThreshold = 50

// ValidateValue passes the payload value through when it is truthy and
// reports FAILED with an undefined value otherwise.
func ValidateValue() api.Invoker {
	return api.InvokerFunc(func(ctx context.Context, in api.Payload) (api.TaskResult, error) {
		v, ok := in.Value()
		if !ok || !Truthy(v) {
			return api.Failed(nil), nil
		}
		return api.Succeeded(v), nil
	})
}

// ThresholdCheck reports SUCCEEDED when the payload value is a number (or a
// numeric string) of at least min. The value is carried forward unchanged
// on both branches.
func ThresholdCheck(min float64) api.Invoker {
	return api.InvokerFunc(func(ctx context.Context, in api.Payload) (api.TaskResult, error) {
		v, _ := in.Value()
		n, ok := toNumber(v)
		if !ok || n < min {
			return api.Failed(v), nil
		}
		return api.Succeeded(v), nil
	})
}

// Finalize always succeeds, carrying the value unchanged.
func Finalize() api.Invoker {
	return api.InvokerFunc(func(ctx context.Context, in api.Payload) (api.TaskResult, error) {
		v, _ := in.Value()
		return api.Succeeded(v), nil
	})
}

// Truthy reports whether v would be truthy in JavaScript: everything except
// nil, false, 0, NaN and "".
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	}
	if f, ok := numeric(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func toNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	f, ok := numeric(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
