// Package filter translates AIP-160 piece filters into SQL conditions.
//
// Supported fields are piece_id, style_id, width, height and cells, all
// integers. Expressions combine comparisons with AND, OR and NOT.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ErrInvalidFilter wraps every parse or translation failure.
var ErrInvalidFilter = errors.New("invalid filter")

// Condition is a SQL WHERE fragment with positional parameters.
type Condition struct {
	Clause string
	Params []any
}

// IsEmpty reports whether the condition matches everything.
func (c Condition) IsEmpty() bool {
	return c.Clause == ""
}

var columns = map[string]string{
	"piece_id": "piece_id",
	"style_id": "style_id",
	"width":    "width",
	"height":   "height",
	"cells":    "cell_count",
}

var operators = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

// Declarations returns the identifiers a piece filter may use.
func Declarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for field := range columns {
		opts = append(opts, filtering.DeclareIdent(field, filtering.TypeInt))
	}
	return filtering.NewDeclarations(opts...)
}

// Parse translates a filter string. The empty filter yields an empty
// condition.
func Parse(filter string) (Condition, error) {
	if strings.TrimSpace(filter) == "" {
		return Condition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("declare filter fields: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	cond, err := translate(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return cond, nil
}

func translate(e *expr.Expr) (Condition, error) {
	call := e.GetCallExpr()
	if call == nil {
		return Condition{}, fmt.Errorf("unsupported expression %T", e.GetExprKind())
	}
	switch call.GetFunction() {
	case "_&&_", "AND":
		return join(call.GetArgs(), "AND")
	case "_||_", "OR":
		return join(call.GetArgs(), "OR")
	case "!_", "NOT":
		if len(call.GetArgs()) != 1 {
			return Condition{}, fmt.Errorf("NOT takes one argument")
		}
		inner, err := translate(call.GetArgs()[0])
		if err != nil {
			return Condition{}, err
		}
		return Condition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	}
	op, ok := operators[call.GetFunction()]
	if !ok {
		return Condition{}, fmt.Errorf("unsupported function %s", call.GetFunction())
	}
	return compare(call.GetArgs(), op)
}

func join(args []*expr.Expr, keyword string) (Condition, error) {
	if len(args) < 2 {
		return Condition{}, fmt.Errorf("%s takes at least two arguments", keyword)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := translate(arg)
		if err != nil {
			return Condition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	return Condition{Clause: "(" + strings.Join(clauses, " "+keyword+" ") + ")", Params: params}, nil
}

func compare(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("comparison takes two arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return Condition{}, fmt.Errorf("left side of %s must be a field", op)
	}
	column, ok := columns[ident.GetName()]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field %s", ident.GetName())
	}
	constant := args[1].GetConstExpr()
	if constant == nil {
		return Condition{}, fmt.Errorf("right side of %s must be a constant", op)
	}
	var value any
	switch kind := constant.GetConstantKind().(type) {
	case *expr.Constant_Int64Value:
		value = kind.Int64Value
	case *expr.Constant_Uint64Value:
		value = int64(kind.Uint64Value)
	default:
		return Condition{}, fmt.Errorf("field %s takes an integer", ident.GetName())
	}
	return Condition{Clause: fmt.Sprintf("%s %s ?", column, op), Params: []any{value}}, nil
}
