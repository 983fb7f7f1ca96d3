package processor

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisjab/jitsoql/entity"
	"github.com/thisisjab/jitsoql/fault"
)

func strPtr(s string) *string {
	return &s
}

func TestValidateProcessor(t *testing.T) {
	t.Parallel()

	p, err := NewValidateProcessor(ValidateProcessorConfig{Name: "validate"})
	require.NoError(t, err)
	assert.Equal(t, "validate", p.Name())

	r, err := p.Process(entity.QueryRecord{Text: "SELECT Id FROM Account WHERE Id = '[id{001}]'"})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusValid, r.Status)
	assert.True(t, r.RoundTrip)
	assert.Nil(t, r.Error)
	assert.Equal(t, []entity.QueryVariable{{Name: "id", Default: strPtr("001"), Quoted: true}}, r.Variables)

	r, err = p.Process(entity.QueryRecord{Text: "select Id from Account"})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusValid, r.Status)
	assert.False(t, r.RoundTrip)
	assert.Equal(t, "SELECT Id FROM Account", r.Normalized)

	r, err = p.Process(entity.QueryRecord{Text: "SELECT Id FROM Account WHERE Id = [id{x]"})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusInvalid, r.Status)
	require.NotNil(t, r.Error)
	assert.Equal(t, string(fault.LexicalCode), r.Error.Code)
	assert.Equal(t, 1, r.Error.Line)
	assert.Equal(t, 38, r.Error.Column)
}

func TestValidateProcessorRequireRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := NewValidateProcessor(ValidateProcessorConfig{RequireRoundTrip: true})
	require.NoError(t, err)

	r, err := p.Process(entity.QueryRecord{Text: "select Id from Account"})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusInvalid, r.Status)
	require.NotNil(t, r.Error)
	assert.Equal(t, "not_canonical", r.Error.Code)
}

func TestBindProcessor(t *testing.T) {
	t.Parallel()

	p, err := NewBindProcessor(BindProcessorConfig{Name: "bind", Values: map[string]string{"id": "config", "name": "Bob"}})
	require.NoError(t, err)

	r, err := p.Process(entity.QueryRecord{
		Text:   "SELECT Id FROM Account WHERE Id = '[id]' AND Name = '[name]'",
		Values: map[string]string{"id": "record"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusBound, r.Status)
	assert.Equal(t, "SELECT Id FROM Account WHERE Id = 'record' AND Name = 'Bob'", r.Bound)

	r, err = p.Process(entity.QueryRecord{Text: "SELECT Id FROM Account WHERE Id = [missing]"})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusInvalid, r.Status)
	assert.Equal(t, string(fault.NotFoundCode), r.Error.Code)

	invalid := entity.QueryRecord{Text: "broken", Status: entity.QueryStatusInvalid}
	r, err = p.Process(invalid)
	require.NoError(t, err)
	assert.Equal(t, invalid, r)

	r, err = p.Process(entity.QueryRecord{Text: "SELECT Id FROM Account WHERE Id = variable]"})
	require.NoError(t, err)
	assert.Equal(t, entity.QueryStatusInvalid, r.Status)
	assert.Equal(t, string(fault.StructuralCode), r.Error.Code)
}

func TestBindProcessorWithScript(t *testing.T) {
	t.Parallel()

	p, err := NewBindProcessor(BindProcessorConfig{
		Values:     map[string]string{"limit": "5"},
		ScriptPath: filepath.Join("testdata", "resolve.lua"),
	})
	require.NoError(t, err)

	r, err := p.Process(entity.QueryRecord{Text: "SELECT Id FROM Account WHERE Id = '[id]' AND Size > [limit] AND Other = [unknown{none}]"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account WHERE Id = '001' AND Size > 5 AND Other = none", r.Bound)

	_, err = p.Process(entity.QueryRecord{Text: "SELECT Id FROM Account WHERE Id = [fail]"})
	assert.Error(t, err)
}

func TestLuaResolver(t *testing.T) {
	t.Parallel()

	r, err := NewLuaResolver(LuaResolverConfig{ScriptPath: filepath.Join("testdata", "resolve.lua")})
	require.NoError(t, err)

	tests := []struct {
		name     string
		expected string
		ok       bool
	}{
		{"id", "001", true},
		{"limit", "10", true},
		{"active", "true", true},
		{"tags", `["a","b"]`, true},
		{"unknown", "", false},
	}

	var wg sync.WaitGroup
	for _, tt := range tests {
		wg.Go(func() {
			v, ok, err := r.Resolve(tt.name)
			assert.NoError(t, err)
			assert.Equal(t, tt.ok, ok, tt.name)
			assert.Equal(t, tt.expected, v, tt.name)
		})
	}
	wg.Wait()

	_, _, err = r.Resolve("fail")
	assert.Error(t, err)
}

func TestNewLuaResolverErrors(t *testing.T) {
	t.Parallel()

	_, err := NewLuaResolver(LuaResolverConfig{ScriptPath: filepath.Join("testdata", "missing.lua")})
	assert.Error(t, err)

	_, err = NewLuaResolver(LuaResolverConfig{ScriptPath: filepath.Join("testdata", "no_resolve.lua")})
	assert.Error(t, err)
}

func TestJsonQueryProcessor(t *testing.T) {
	t.Parallel()

	p, err := NewJsonQueryProcessor(JsonQueryProcessorConfig{Name: "json"})
	require.NoError(t, err)

	r, err := p.Process(entity.QueryRecord{
		Text: `{"query": "SELECT Id FROM Account WHERE Id = [id]", "values": {"id": 7, "big": 12345678901234567890, "flag": false, "obj": {"a": 1}, "none": null}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account WHERE Id = [id]", r.Text)
	assert.Equal(t, map[string]string{
		"id":   "7",
		"big":  "12345678901234567890",
		"flag": "false",
		"obj":  `{"a":1}`,
		"none": "",
	}, r.Values)

	custom, err := NewJsonQueryProcessor(JsonQueryProcessorConfig{QueryFieldName: "q", ValuesFieldName: "v"})
	require.NoError(t, err)
	r, err = custom.Process(entity.QueryRecord{Text: `{"q": "SELECT Id FROM Account"}`})
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account", r.Text)
	assert.Nil(t, r.Values)

	for _, input := range []string{
		`not json`,
		`{"values": {}}`,
		`{"query": 1}`,
		`{"query": "SELECT Id FROM Account", "values": [1]}`,
	} {
		_, err := p.Process(entity.QueryRecord{Text: input})
		assert.Error(t, err, input)
	}
}
