package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/processor"
	"github.com/thisisjab/jitsoql/soql"
	"github.com/thisisjab/jitsoql/soql/ast"
)

var errInvalidQuery = errors.New("query is invalid")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "jitsoql",
		Short:         "Parse, compose, validate and bind SOQL queries with Jitterbit variables",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(
		newParseCmd(),
		newComposeCmd(),
		newValidateCmd(),
		newVarsCmd(),
		newBindCmd(),
	)

	return cmd
}

// readQuery takes the query from the arguments, or from stdin when there
// are none or the only argument is "-".
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("cannot read query: %w", err)
	}

	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", fault.New(fault.BadInputCode, "no query given")
	}
	return query, nil
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [query]",
		Short: "Print the tree of a query as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			q, err := soql.ParseQuery(query)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(q)
		},
	}
}

func newComposeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compose [file]",
		Short: "Turn a JSON query tree back into query text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var q ast.Query
			if err := json.NewDecoder(r).Decode(&q); err != nil {
				return fmt.Errorf("cannot decode query tree: %w", err)
			}

			text, err := soql.ComposeQuery(&q)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [query]",
		Short: "Check whether a query is valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			if _, err := soql.ParseQuery(query); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "invalid: %v\n", err)
				return errInvalidQuery
			}

			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
}

func newVarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vars [query]",
		Short: "List the variables a query references",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			q, err := soql.ParseQuery(query)
			if err != nil {
				return err
			}

			for _, v := range soql.Variables(q) {
				line := v.Variable
				if v.DefaultValue != nil {
					line += "\tdefault=" + *v.DefaultValue
				}
				if v.Quoted() {
					line += "\tquoted"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newBindCmd() *cobra.Command {
	var (
		values     map[string]string
		scriptPath string
	)

	cmd := &cobra.Command{
		Use:   "bind [query]",
		Short: "Substitute variable values into a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd, args)
			if err != nil {
				return err
			}

			q, err := soql.ParseQuery(query)
			if err != nil {
				return err
			}

			resolvers := []soql.Resolver{soql.MapResolver(values)}
			if scriptPath != "" {
				lr, err := processor.NewLuaResolver(processor.LuaResolverConfig{ScriptPath: scriptPath})
				if err != nil {
					return err
				}
				resolvers = append(resolvers, lr)
			}

			bound, err := soql.Bind(q, soql.ChainResolver(resolvers...))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), bound)
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&values, "var", "v", nil, "variable value as name=value, repeatable")
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Lua script defining resolve(name) for values not given with --var")

	return cmd
}
