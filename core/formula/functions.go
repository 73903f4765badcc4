package formula

import (
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions is the whole callable surface of a formula
var functions = map[string]function.Function{
	"ceiling": stdlib.CeilFunc,
	"ceil":    stdlib.CeilFunc,
	"floor":   stdlib.FloorFunc,
	"round":   RoundFunc,
	"min":     stdlib.MinFunc,
	"max":     stdlib.MaxFunc,
	"abs":     stdlib.AbsoluteFunc,
}

// RoundFunc rounds half away from zero to the nearest integer
var RoundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		f := args[0].AsBigFloat()
		if f.IsInf() {
			return args[0], nil
		}
		half := big.NewFloat(0.5)
		if f.Sign() < 0 {
			half.Neg(half)
		}
		f.Add(f, half)
		i, _ := f.Int(nil)
		return cty.NumberVal(new(big.Float).SetInt(i)), nil
	},
})
