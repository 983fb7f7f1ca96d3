package soql

import (
	"fmt"
	"strings"

	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql/ast"
)

// Variables lists every variable reference in q in source order: variables
// inside subqueries of the field list come before those of the WHERE chain.
func Variables(q *ast.Query) []ast.VariableLiteral {
	var out []ast.VariableLiteral
	collectVariables(q, &out)
	return out
}

func collectVariables(q *ast.Query, out *[]ast.VariableLiteral) {
	if q == nil {
		return
	}

	for _, f := range q.Fields {
		if sub, ok := f.(ast.FieldSubquery); ok {
			collectVariables(sub.Subquery, out)
		}
	}

	for node := q.Where; node != nil; node = node.Right {
		if v, ok := node.Left.Value.(ast.VariableLiteral); ok {
			*out = append(*out, v)
		}
	}
}

// Resolver looks up the value bound to a variable name. ok is false when the
// name is unbound.
type Resolver interface {
	Resolve(name string) (value string, ok bool, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, bool, error)

func (f ResolverFunc) Resolve(name string) (string, bool, error) {
	return f(name)
}

// MapResolver resolves variables from a fixed set of values.
type MapResolver map[string]string

func (m MapResolver) Resolve(name string) (string, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

// ChainResolver asks each resolver in turn and returns the first value found.
func ChainResolver(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(name string) (string, bool, error) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			v, ok, err := r.Resolve(name)
			if err != nil || ok {
				return v, ok, err
			}
		}
		return "", false, nil
	})
}

// Bind composes q with every variable replaced by its value. A variable that
// r does not resolve falls back to its default; without one, Bind fails with
// fault.NotFoundCode. Quoted references stay quoted and have the value
// escaped; unquoted ones are inserted as is.
func Bind(q *ast.Query, r Resolver) (string, error) {
	c := NewComposer(ComposerOptions{
		RenderLiteral: func(lit ast.Literal) (string, error) {
			v, ok := lit.(ast.VariableLiteral)
			if !ok {
				return lit.Text(), nil
			}
			return bindVariable(v, r)
		},
	})
	return c.Compose(q)
}

func bindVariable(v ast.VariableLiteral, r Resolver) (string, error) {
	value, ok, err := r.Resolve(v.Variable)
	if err != nil {
		return "", fmt.Errorf("resolving variable %q: %w", v.Variable, err)
	}

	if !ok {
		if v.DefaultValue == nil {
			return "", fault.Newf(fault.NotFoundCode, "variable %q has no value and no default", v.Variable).
				WithMetadata(map[string]string{"variable": v.Variable})
		}
		value = UnescapeDefault(*v.DefaultValue)
	}

	if v.Quoted() {
		return "'" + escapeString(value) + "'", nil
	}
	return value, nil
}

var (
	defaultUnescaper = strings.NewReplacer(`\{`, `{`, `\}`, `}`)
	stringEscaper    = strings.NewReplacer(`\`, `\\`, `'`, `\'`)
)

// UnescapeDefault resolves the `\{` and `\}` escape pairs of a default value.
func UnescapeDefault(s string) string {
	return defaultUnescaper.Replace(s)
}

func escapeString(s string) string {
	return stringEscaper.Replace(s)
}
