// Package formula evaluates rule quantity formulas.
//
// Formulas are small arithmetic expressions authored in the rules table:
// number literals, measurement names, + - * /, parentheses and a fixed set
// of numeric functions. They are parsed with the HCL expression grammar and
// every node is checked against a whitelist before evaluation, so a stored
// formula can only ever compute a number.
package formula

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"siding-takeoff/internal/errors"
)

// legacyMath matches JavaScript-style Math.fn( prefixes left in older rules
var legacyMath = regexp.MustCompile(`\bMath\.([a-z]+)\s*\(`)

// Evaluate computes a formula against the given variables.
// On any failure it returns 0 and a FORMULA_ERROR; a negative result is clamped to 0.
func Evaluate(formula string, vars map[string]float64) (float64, error) {
	expr, err := parse(formula)
	if err != nil {
		return 0, err
	}

	ctx := &hcl.EvalContext{
		Variables: make(map[string]cty.Value, len(vars)),
		Functions: functions,
	}
	for name, v := range vars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		ctx.Variables[name] = cty.NumberFloatVal(v)
	}

	val, diags := evaluate(expr, ctx)
	if diags.HasErrors() {
		return 0, errors.Formula(formula, "evaluation failed", diags)
	}
	if val.IsNull() || !val.IsKnown() || !val.Type().Equals(cty.Number) {
		return 0, errors.Formula(formula, fmt.Sprintf("result is %s, not a number", val.Type().FriendlyName()), nil)
	}

	q, _ := val.AsBigFloat().Float64()
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, errors.Formula(formula, "result is not finite", nil)
	}
	if q < 0 {
		return 0, nil
	}
	return q, nil
}

// Validate parses a formula and reports the measurement names it references.
// It does not check that the names exist.
func Validate(formula string) ([]string, error) {
	expr, err := parse(formula)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, tr := range expr.Variables() {
		seen[tr.RootName()] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func parse(formula string) (hclsyntax.Expression, error) {
	src := strings.TrimSpace(formula)
	if src == "" {
		return nil, errors.Formula(formula, "formula is empty", nil)
	}
	src = legacyMath.ReplaceAllString(src, "$1(")

	expr, diags := hclsyntax.ParseExpression([]byte(src), "formula", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Formula(formula, "syntax error", diags)
	}
	if diags := hclsyntax.VisitAll(expr, allowNode); diags.HasErrors() {
		return nil, errors.Formula(formula, "unsupported construct", diags)
	}
	return expr, nil
}

// evaluate runs the expression, converting cty panics into diagnostics
func evaluate(expr hclsyntax.Expression, ctx *hcl.EvalContext) (val cty.Value, diags hcl.Diagnostics) {
	defer func() {
		if r := recover(); r != nil {
			val = cty.NilVal
			diags = hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Arithmetic failure",
				Detail:   fmt.Sprint(r),
			}}
		}
	}()
	return expr.Value(ctx)
}

var allowedOps = map[*hclsyntax.Operation]bool{
	hclsyntax.OpAdd:      true,
	hclsyntax.OpSubtract: true,
	hclsyntax.OpMultiply: true,
	hclsyntax.OpDivide:   true,
	hclsyntax.OpNegate:   true,
}

func allowNode(node hclsyntax.Node) hcl.Diagnostics {
	switch n := node.(type) {
	case *hclsyntax.LiteralValueExpr:
		if n.Val.Type() == cty.Number {
			return nil
		}
		return reject(n.SrcRange, "only numeric literals are allowed")
	case *hclsyntax.ScopeTraversalExpr:
		if len(n.Traversal) == 1 {
			return nil
		}
		return reject(n.SrcRange, "attribute and index access are not allowed")
	case *hclsyntax.BinaryOpExpr:
		if allowedOps[n.Op] {
			return nil
		}
		return reject(n.SrcRange, "only + - * / are allowed")
	case *hclsyntax.UnaryOpExpr:
		if allowedOps[n.Op] {
			return nil
		}
		return reject(n.SrcRange, "only unary minus is allowed")
	case *hclsyntax.ParenthesesExpr:
		return nil
	case *hclsyntax.FunctionCallExpr:
		if _, ok := functions[n.Name]; ok && !n.ExpandFinal {
			return nil
		}
		return reject(n.NameRange, fmt.Sprintf("function %q is not allowed", n.Name))
	}
	return reject(node.Range(), fmt.Sprintf("%T is not allowed", node))
}

func reject(rng hcl.Range, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported formula construct",
		Detail:   detail,
		Subject:  rng.Ptr(),
	}}
}

// Functions returns the names callable from a formula
func Functions() []string {
	names := make([]string, 0, len(functions))
	for n := range functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
