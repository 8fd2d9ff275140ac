package extract

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"github.com/matzehuels/twill/pkg/jsonapi"
)

// ResourceVar is the CEL variable bound to the resource being extracted.
const ResourceVar = "resource"

// ErrUnsupportedType is returned when a CEL result has no Go equivalent.
var ErrUnsupportedType = errors.New("unsupported CEL result type")

type program struct {
	field string
	prg   cel.Program
}

// Expressions compiles field → CEL expression pairs into a rule.
//
// Each expression sees the materialized resource as the map variable
// "resource", relationship fields included:
//
//	resource.first_name + " " + resource.last_name
//	has(resource.author) && resource.author != null ? resource.author.name : ""
//
// Compilation errors are returned immediately. Evaluation errors are
// returned by the rule. An expression evaluating to null sets the field to nil.
func Expressions(exprs map[string]string) (Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable(ResourceVar, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}

	programs := make([]program, 0, len(exprs))
	for _, field := range slices.Sorted(maps.Keys(exprs)) {
		ast, iss := env.Compile(exprs[field])
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile %q: %w", field, iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", field, err)
		}
		programs = append(programs, program{field: field, prg: prg})
	}

	return func(r jsonapi.Resource) (map[string]any, error) {
		vars := map[string]any{ResourceVar: map[string]any(r)}
		patch := make(map[string]any, len(programs))
		for _, p := range programs {
			out, _, err := p.prg.Eval(vars)
			if err != nil {
				return nil, fmt.Errorf("evaluate %q: %w", p.field, err)
			}
			v, err := goNative(out)
			if err != nil {
				return nil, fmt.Errorf("evaluate %q: %w", p.field, err)
			}
			patch[p.field] = v
		}
		return patch, nil
	}, nil
}

// goNative converts a CEL value into plain Go values.
func goNative(v ref.Val) (any, error) {
	switch v.Type() {
	case types.BoolType, types.IntType, types.UintType, types.DoubleType,
		types.StringType, types.BytesType:
		return v.Value(), nil
	case types.NullType:
		return nil, nil
	case types.ListType:
		return nativeList(v)
	case types.MapType:
		return nativeMap(v)
	case types.OptionalType:
		opt := v.(*types.Optional)
		if !opt.HasValue() {
			return nil, nil
		}
		return goNative(opt.GetValue())
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, v.Type())
}

func nativeList(v ref.Val) (any, error) {
	lister, ok := v.(traits.Lister)
	if !ok {
		return v.ConvertToNative(reflect.TypeOf([]any{}))
	}
	out := []any{}
	for it := lister.Iterator(); it.HasNext() == types.True; {
		elem, err := goNative(it.Next())
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

func nativeMap(v ref.Val) (any, error) {
	mapper, ok := v.(traits.Mapper)
	if !ok {
		return v.ConvertToNative(reflect.TypeOf(map[string]any{}))
	}
	out := make(map[string]any)
	for it := mapper.Iterator(); it.HasNext() == types.True; {
		key := it.Next()
		k, ok := key.Value().(string)
		if !ok {
			return nil, fmt.Errorf("map key must be string, got %v", key.Type())
		}
		val, err := goNative(mapper.Get(key))
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}
