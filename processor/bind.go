package processor

import (
	"fmt"

	"github.com/thisisjab/jitsoql/entity"
	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql"
)

type BindProcessorConfig struct {
	Name   string            `yaml:"-"`
	Values map[string]string `yaml:"values"`
	// ScriptPath points to a Lua script used for values that neither the
	// record nor Values provide. Optional.
	ScriptPath string `yaml:"script_path"`
}

// BindProcessor substitutes variable values into each query. Values carried
// by the record win over configured values, which win over the script.
type BindProcessor struct {
	cfg    BindProcessorConfig
	values soql.MapResolver
	lua    *LuaResolver
}

func NewBindProcessor(cfg BindProcessorConfig) (*BindProcessor, error) {
	p := &BindProcessor{cfg: cfg, values: soql.MapResolver(cfg.Values)}

	if cfg.ScriptPath != "" {
		lr, err := NewLuaResolver(LuaResolverConfig{ScriptPath: cfg.ScriptPath})
		if err != nil {
			return nil, fmt.Errorf("cannot load resolver script: %w", err)
		}
		p.lua = lr
	}

	return p, nil
}

func (p *BindProcessor) Name() string {
	return p.cfg.Name
}

func (p *BindProcessor) Process(record entity.QueryRecord) (entity.QueryRecord, error) {
	if record.Status == entity.QueryStatusInvalid {
		return record, nil
	}

	q, err := soql.ParseQuery(record.Text)
	if err != nil {
		record.Status = entity.QueryStatusInvalid
		record.Error = queryErrorFrom(err)
		return record, nil
	}

	resolvers := []soql.Resolver{soql.MapResolver(record.Values), p.values}
	if p.lua != nil {
		resolvers = append(resolvers, p.lua)
	}

	bound, err := soql.Bind(q, soql.ChainResolver(resolvers...))
	if err != nil {
		if fault.Is(err, fault.NotFoundCode) {
			record.Status = entity.QueryStatusInvalid
			record.Error = queryErrorFrom(err)
			return record, nil
		}
		return record, fmt.Errorf("cannot bind query: %w", err)
	}

	record.Status = entity.QueryStatusBound
	record.Bound = bound
	return record, nil
}
