package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisjab/jitsoql/fault"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "parse", "SELECT Id FROM Account WHERE Id = [id{x}]")
	require.NoError(t, err)
	assert.Contains(t, out, `"sObject": "Account"`)
	assert.Contains(t, out, `"defaultValue": "x"`)

	_, err = run(t, "SELECT Id FROM Account WHERE Id = [id{x]\n", "parse")
	assert.True(t, fault.Is(err, fault.LexicalCode), "%v", err)

	_, err = run(t, "  \n", "parse", "-")
	assert.True(t, fault.Is(err, fault.BadInputCode), "%v", err)
}

func TestComposeCommand(t *testing.T) {
	t.Parallel()

	tree, err := run(t, "", "parse", "SELECT Id FROM Account WHERE Name = '[name]' LIMIT 3")
	require.NoError(t, err)

	out, err := run(t, tree, "compose")
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account WHERE Name = '[name]' LIMIT 3\n", out)

	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(tree), 0o600))
	out, err = run(t, "", "compose", path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account WHERE Name = '[name]' LIMIT 3\n", out)

	_, err = run(t, `{"fields": [], "sObject": "Account"}`, "compose")
	assert.Error(t, err)

	_, err = run(t, "", "compose", "a", "b")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "validate", "SELECT", "Id", "FROM", "Account")
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	out, err = run(t, "", "validate", "SELECT Id FROM Account WHERE Id = variable]")
	assert.ErrorIs(t, err, errInvalidQuery)
	assert.True(t, strings.HasPrefix(out, "invalid: "), out)
}

func TestVarsCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "vars", "SELECT Id FROM Account WHERE Id = [a] AND Name = '[b{x}]'")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\tdefault=x\tquoted\n", out)
}

func TestBindCommand(t *testing.T) {
	t.Parallel()

	query := "SELECT Id FROM Account WHERE Id = '[id]' AND Age > [age{18}]"

	out, err := run(t, "", "bind", "--var", "id=001", query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account WHERE Id = '001' AND Age > 18\n", out)

	_, err = run(t, "", "bind", query)
	assert.True(t, fault.Is(err, fault.NotFoundCode), "%v", err)

	script := filepath.Join(t.TempDir(), "resolve.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
function resolve(name)
  if name == "id" then return "from-lua" end
  return nil
end
`), 0o600))

	out, err = run(t, "", "bind", "-s", script, "-v", "age=21", query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM Account WHERE Id = 'from-lua' AND Age > 21\n", out)
}
