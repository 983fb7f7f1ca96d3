package soql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisjab/jitsoql/fault"
)

func TestVariables(t *testing.T) {
	t.Parallel()

	q, err := ParseQuery("SELECT Id, (SELECT Name FROM Contacts WHERE Name = '[inner{x}]') FROM Account WHERE Id = [a] AND Name = 'plain' AND Owner = '[b]'")
	require.NoError(t, err)

	vars := Variables(q)
	require.Len(t, vars, 3)

	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.Variable)
	}
	assert.Equal(t, []string{"inner", "a", "b"}, names)
	assert.True(t, vars[0].Quoted())
	assert.False(t, vars[1].Quoted())

	assert.Empty(t, Variables(nil))
}

func TestBind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		values   MapResolver
		expected string
	}{
		{
			name:     "unquoted value inserted raw",
			query:    "SELECT Id FROM Account WHERE Age > [age]",
			values:   MapResolver{"age": "21"},
			expected: "SELECT Id FROM Account WHERE Age > 21",
		},
		{
			name:     "quoted value is escaped",
			query:    "SELECT Id FROM Account WHERE Name = '[name]'",
			values:   MapResolver{"name": `O'Brien\`},
			expected: `SELECT Id FROM Account WHERE Name = 'O\'Brien\\'`,
		},
		{
			name:     "default used when unbound",
			query:    "SELECT Id FROM Account WHERE Name = '[name{Bob}]'",
			values:   MapResolver{},
			expected: "SELECT Id FROM Account WHERE Name = 'Bob'",
		},
		{
			name:     "bound value wins over default",
			query:    "SELECT Id FROM Account WHERE Name = '[name{Bob}]'",
			values:   MapResolver{"name": "Alice"},
			expected: "SELECT Id FROM Account WHERE Name = 'Alice'",
		},
		{
			name:     "default escape pairs are resolved",
			query:    `SELECT Id FROM Account WHERE Name = [name{\{test\}}]`,
			values:   MapResolver{},
			expected: "SELECT Id FROM Account WHERE Name = {test}",
		},
		{
			name:     "subquery variables",
			query:    "SELECT Id, (SELECT Name FROM Contacts WHERE Name = '[n]') FROM Account WHERE Id = [id]",
			values:   MapResolver{"n": "x", "id": "7"},
			expected: "SELECT Id, (SELECT Name FROM Contacts WHERE Name = 'x') FROM Account WHERE Id = 7",
		},
		{
			name:     "no variables",
			query:    "SELECT Id FROM Account WHERE Name = '[not a variable'",
			values:   nil,
			expected: "SELECT Id FROM Account WHERE Name = '[not a variable'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q, err := ParseQuery(tt.query)
			require.NoError(t, err)

			out, err := Bind(q, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestBindErrors(t *testing.T) {
	t.Parallel()

	q, err := ParseQuery("SELECT Id FROM Account WHERE Id = [missing]")
	require.NoError(t, err)

	_, err = Bind(q, MapResolver{})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.NotFoundCode))

	boom := errors.New("boom")
	_, err = Bind(q, ResolverFunc(func(string) (string, bool, error) {
		return "", false, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestChainResolver(t *testing.T) {
	t.Parallel()

	r := ChainResolver(MapResolver{"a": "first"}, nil, MapResolver{"a": "second", "b": "b"})

	v, ok, err := r.Resolve("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok, _ = r.Resolve("b")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok, _ = r.Resolve("c")
	assert.False(t, ok)
}

func TestUnescapeDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "{a}", UnescapeDefault(`\{a\}`))
	assert.Equal(t, `a\b`, UnescapeDefault(`a\b`))
}
