package sandbox

import (
	"fmt"
	"math"

	"go.starlark.net/starlark"
)

// Starlark's universe covers len/sorted/min/max/enumerate/zip/range
// natively; sum, round, map and filter are the primitives it lacks, so
// they are provided here. map and filter return lists, not iterators.

func builtinSum(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var seq starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &seq); err != nil {
		return nil, err
	}

	var intSum int64
	var floatSum float64
	isFloat := false

	iter := seq.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		switch n := item.(type) {
		case starlark.Int:
			i, ok := n.Int64()
			if !ok {
				return nil, fmt.Errorf("%s: integer out of range", b.Name())
			}
			intSum += i
			floatSum += float64(i)
		case starlark.Float:
			isFloat = true
			floatSum += float64(n)
		default:
			return nil, fmt.Errorf("%s: want a sequence of numbers, got %s", b.Name(), item.Type())
		}
	}

	if isFloat {
		return starlark.Float(floatSum), nil
	}
	return starlark.MakeInt64(intSum), nil
}

func builtinMap(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	var seq starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &fn, &seq); err != nil {
		return nil, err
	}

	var out []starlark.Value
	iter := seq.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		v, err := starlark.Call(thread, fn, starlark.Tuple{item}, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return starlark.NewList(out), nil
}

func builtinFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Value
	var seq starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &fn, &seq); err != nil {
		return nil, err
	}

	callable, isCallable := fn.(starlark.Callable)
	if !isCallable && fn != starlark.None {
		return nil, fmt.Errorf("%s: want a callable or None, got %s", b.Name(), fn.Type())
	}

	var out []starlark.Value
	iter := seq.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		keep := bool(item.Truth())
		if isCallable {
			v, err := starlark.Call(thread, callable, starlark.Tuple{item}, nil)
			if err != nil {
				return nil, err
			}
			keep = bool(v.Truth())
		}
		if keep {
			out = append(out, item)
		}
	}
	return starlark.NewList(out), nil
}

func builtinRound(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	ndigits := 0
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value, &ndigits); err != nil {
		return nil, err
	}

	var f float64
	switch n := value.(type) {
	case starlark.Int:
		i, ok := n.Int64()
		if !ok {
			return nil, fmt.Errorf("%s: integer out of range", b.Name())
		}
		f = float64(i)
	case starlark.Float:
		f = float64(n)
	default:
		return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), value.Type())
	}

	pow := math.Pow(10, float64(ndigits))
	rounded := math.Round(f*pow) / pow
	if ndigits <= 0 {
		return starlark.MakeInt64(int64(rounded)), nil
	}
	return starlark.Float(rounded), nil
}
