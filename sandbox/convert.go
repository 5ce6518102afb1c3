package sandbox

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// starlarkToGo converts a Starlark value into a JSON-representable Go value.
// Anything without a natural mapping falls back to its string form rather
// than failing, so an exotic binding never poisons the whole result.
func starlarkToGo(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case starlark.String:
		return string(v)
	case *starlark.List:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = starlarkToGo(v.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = starlarkToGo(item)
		}
		return out
	case *starlark.Set:
		out := make([]any, 0, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var item starlark.Value
		for iter.Next(&item) {
			out = append(out, starlarkToGo(item))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, kv := range v.Items() {
			key, ok := kv[0].(starlark.String)
			if !ok {
				out[kv[0].String()] = starlarkToGo(kv[1])
				continue
			}
			out[string(key)] = starlarkToGo(kv[1])
		}
		return out
	default:
		return v.String()
	}
}

// goToStarlark converts a Go value (typically decoded JSON) into a Starlark
// value for seeding the execution environment.
func goToStarlark(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case string:
		return starlark.String(v), nil
	case []any:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			sv, err := goToStarlark(item)
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case []map[string]any:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			sv, err := goToStarlark(map[string]any(item))
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case map[string]any:
		dict := starlark.NewDict(len(v))
		for key, item := range v {
			sv, err := goToStarlark(item)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(key), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// statsModule provides the small statistics surface snippets tend to want.
var statsModule = &starlarkstruct.Module{
	Name: "stats",
	Members: starlark.StringDict{
		"mean":   starlark.NewBuiltin("mean", statsMean),
		"median": starlark.NewBuiltin("median", statsMedian),
	},
}

func statsMean(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	values, err := numericArg(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty sequence", b.Name())
	}
	var sum float64
	for _, f := range values {
		sum += f
	}
	return starlark.Float(sum / float64(len(values))), nil
}

func statsMedian(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	values, err := numericArg(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty sequence", b.Name())
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return starlark.Float(values[mid]), nil
	}
	return starlark.Float((values[mid-1] + values[mid]) / 2), nil
}

func numericArg(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) ([]float64, error) {
	var seq starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &seq); err != nil {
		return nil, err
	}
	var values []float64
	iter := seq.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		switch n := item.(type) {
		case starlark.Int:
			if i, ok := n.Int64(); ok {
				values = append(values, float64(i))
				continue
			}
			return nil, fmt.Errorf("%s: integer out of range", b.Name())
		case starlark.Float:
			values = append(values, float64(n))
		default:
			return nil, fmt.Errorf("%s: want a sequence of numbers, got %s", b.Name(), item.Type())
		}
	}
	return values, nil
}
