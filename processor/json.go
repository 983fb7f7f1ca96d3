package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thisisjab/jitsoql/entity"
)

type JsonQueryProcessorConfig struct {
	Name            string `yaml:"-"`
	QueryFieldName  string `yaml:"query_field"`
	ValuesFieldName string `yaml:"values_field"`
}

// JsonQueryProcessor unwraps queries shipped as JSON lines, e.g.
//
//	{"query": "SELECT Id FROM Account WHERE Id = [id]", "values": {"id": 7}}
//
// The query replaces the record text and the values object, if any, becomes
// the record's variable values.
type JsonQueryProcessor struct {
	cfg JsonQueryProcessorConfig
}

// NewJsonQueryProcessor creates a new instance of JsonQueryProcessor.
func NewJsonQueryProcessor(cfg JsonQueryProcessorConfig) (*JsonQueryProcessor, error) {
	if cfg.QueryFieldName == "" {
		cfg.QueryFieldName = "query"
	}
	if cfg.ValuesFieldName == "" {
		cfg.ValuesFieldName = "values"
	}
	return &JsonQueryProcessor{cfg: cfg}, nil
}

func (p *JsonQueryProcessor) Name() string {
	return p.cfg.Name
}

func (p *JsonQueryProcessor) Process(record entity.QueryRecord) (entity.QueryRecord, error) {
	data := make(map[string]any)

	dec := json.NewDecoder(bytes.NewReader([]byte(record.Text)))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return record, err
	}

	val, ok := data[p.cfg.QueryFieldName]
	query, isString := val.(string)
	if !ok || !isString || query == "" {
		return record, errors.New("query field is missing or not a string")
	}

	var values map[string]string
	if raw, ok := data[p.cfg.ValuesFieldName]; ok && raw != nil {
		obj, isObject := raw.(map[string]any)
		if !isObject {
			return record, errors.New("values field is not an object")
		}

		values = make(map[string]string, len(obj))
		for k, v := range obj {
			s, err := stringifyValue(v)
			if err != nil {
				return record, fmt.Errorf("value of %q: %w", k, err)
			}
			values[k] = s
		}
	}

	record.Text = query
	record.Values = values
	return record, nil
}

func stringifyValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
