package filterexpr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

type atom struct {
	Field string
	Op    Op
	Value any
}

// parseConjunction parses filter with CEL and flattens it into atoms. Only
// AND chains are accepted.
func parseConjunction(filter string, fields map[string]Field) ([]atom, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, field := range fields {
		typ, err := celType(field.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, typ))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, err
	}

	var atoms []atom
	var walk func(*exprpb.Expr) error
	walk = func(expr *exprpb.Expr) error {
		call := expr.GetCallExpr()
		if call == nil {
			return errors.New("expected a comparison")
		}
		switch call.Function {
		case "_&&_":
			for _, arg := range call.Args {
				if err := walk(arg); err != nil {
					return err
				}
			}
			return nil
		case "_||_", "!_", "_?_:_":
			return fmt.Errorf("operator %q is not supported, only && is allowed", call.Function)
		}
		a, err := parseAtom(call)
		if err != nil {
			return err
		}
		atoms = append(atoms, a)
		return nil
	}
	if err := walk(parsed.GetExpr()); err != nil {
		return nil, err
	}
	return atoms, nil
}

func celType(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindTimestamp:
		return cel.TimestampType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

func parseAtom(call *exprpb.Expr_Call) (atom, error) {
	var (
		op         Op
		ident, lit *exprpb.Expr
	)
	switch call.Function {
	case "_==_":
		op = OpEQ
	case "_>=_":
		op = OpGTE
	case "_<=_":
		op = OpLTE
	case "@in":
		op = OpIN
	case "startsWith":
		op = OpSW
	default:
		return atom{}, fmt.Errorf("function %q is not supported", call.Function)
	}

	switch {
	case call.Target != nil && len(call.Args) == 1:
		ident, lit = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		ident, lit = call.Args[0], call.Args[1]
	default:
		return atom{}, fmt.Errorf("operator %q expects two operands", string(op))
	}

	id := ident.GetIdentExpr()
	if id == nil {
		return atom{}, errors.New("left-hand side must be a field name")
	}
	value, err := parseLiteral(lit)
	if err != nil {
		return atom{}, err
	}
	return atom{Field: id.GetName(), Op: op, Value: value}, nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch c.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return c.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return c.GetInt64Value(), nil
		case *exprpb.Constant_Uint64Value:
			return int64(c.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return c.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", c.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			s := elem.GetConstExpr().GetStringValue()
			if s == "" {
				return nil, fmt.Errorf("list element %d must be a non-empty string", i)
			}
			values = append(values, s)
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" && len(call.Args) == 1 {
		raw := call.Args[0].GetConstExpr().GetStringValue()
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("timestamp literal %q is not RFC3339", raw)
		}
		return t, nil
	}

	return nil, errors.New("right-hand side must be a literal, list literal, or timestamp() call")
}
