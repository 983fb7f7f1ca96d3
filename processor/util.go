package processor

import (
	"errors"

	"github.com/thisisjab/jitsoql/entity"
	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql/ast"
)

func queryErrorFrom(err error) *entity.QueryError {
	var f fault.Fault
	if !errors.As(err, &f) {
		return &entity.QueryError{Code: string(fault.UnknownCode), Message: err.Error()}
	}

	qe := &entity.QueryError{Code: string(f.Code()), Message: f.Message()}
	if pos, ok := f.Position(); ok {
		qe.Offset = pos.Offset
		qe.Line = pos.Line
		qe.Column = pos.Column
	}
	return qe
}

func variablesOf(vars []ast.VariableLiteral) []entity.QueryVariable {
	if len(vars) == 0 {
		return nil
	}

	out := make([]entity.QueryVariable, 0, len(vars))
	for _, v := range vars {
		out = append(out, entity.QueryVariable{Name: v.Variable, Default: v.DefaultValue, Quoted: v.Quoted()})
	}
	return out
}
