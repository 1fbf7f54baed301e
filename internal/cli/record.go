package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kvdoc/internal/ir"
)

// ValueResult is the output of get.
type ValueResult struct {
	Collection  string `json:"collection" yaml:"collection"`
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	UsedDefault bool   `json:"used_default" yaml:"used_default"`
}

// String prints the value as canonical JSON.
func (r ValueResult) String() string {
	out := canonicalText(r.Value)
	if r.UsedDefault {
		out += " (default)"
	}
	return out
}

// RecordResult is the output of set, clear and sync.
type RecordResult struct {
	Action     string `json:"action" yaml:"action"`
	Collection string `json:"collection" yaml:"collection"`
	Key        string `json:"key" yaml:"key"`
}

func (r RecordResult) String() string {
	return fmt.Sprintf("%s %s/%s", r.Action, r.Collection, r.Key)
}

// DocumentResult is one entry in the output of list.
type DocumentResult struct {
	ID   string `json:"id" yaml:"id"`
	Body any    `json:"body" yaml:"body"`
}

// ListResult is the output of list.
type ListResult struct {
	Collection string           `json:"collection" yaml:"collection"`
	Documents  []DocumentResult `json:"documents" yaml:"documents"`
}

func (r ListResult) String() string {
	if len(r.Documents) == 0 {
		return fmt.Sprintf("no documents in %s", r.Collection)
	}
	lines := make([]string, len(r.Documents))
	for i, doc := range r.Documents {
		lines[i] = doc.ID + " " + canonicalText(doc.Body)
	}
	return strings.Join(lines, "\n")
}

// canonicalText renders a plain Go value as canonical JSON.
func canonicalText(v any) string {
	out, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// parseValue parses a command-line JSON argument.
func parseValue(f *OutputFormatter, name, arg string) (ir.IRValue, error) {
	v, err := ir.UnmarshalIRValue([]byte(arg))
	if err != nil {
		return nil, f.Usage(ErrCodeInvalidInput, fmt.Sprintf("invalid JSON for %s: %v", name, err))
	}
	return v, nil
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var defaultJSON string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored value",
		Long: `Print the value stored under the configured key.

With --default, the given JSON value is printed when no value is stored,
and the result reports that the default was used.`,
		Example: `  kvdoc get --collection settings --key theme
  kvdoc get --collection settings --key theme --default '"dark"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()

			sess, err := rootOpts.openSession(ctx, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			if cmd.Flags().Changed("default") {
				def, err := parseValue(f, "--default", defaultJSON)
				if err != nil {
					return err
				}
				sess.store.SetDefault(def)
			}

			v, used, err := sess.store.GetOr(ctx)
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(ValueResult{
				Collection:  sess.store.Collection(),
				Key:         sess.store.Key(),
				Value:       ir.ToAny(v),
				UsedDefault: used,
			})
		},
	}

	cmd.Flags().StringVar(&defaultJSON, "default", "", "JSON value to print when nothing is stored")
	return cmd
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "set JSON",
		Short:   "Store a value",
		Long:    "Store the given JSON value under the configured key, replacing any previous value.",
		Example: `  kvdoc set --collection settings --key limits '{"max": 10}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()

			v, err := parseValue(f, "value", args[0])
			if err != nil {
				return err
			}

			sess, err := rootOpts.openSession(ctx, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.store.Set(ctx, v); err != nil {
				return f.Fail(err)
			}
			return f.Success(RecordResult{Action: "set", Collection: sess.store.Collection(), Key: sess.store.Key()})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()

			sess, err := rootOpts.openSession(ctx, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.store.Clear(ctx); err != nil {
				return f.Fail(err)
			}
			return f.Success(RecordResult{Action: "clear", Collection: sess.store.Collection(), Key: sess.store.Key()})
		},
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Flush pending writes to the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()

			sess, err := rootOpts.openSession(ctx, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.store.SyncNow(ctx); err != nil {
				return f.Fail(err)
			}
			return f.Success(RecordResult{Action: "sync", Collection: sess.store.Collection(), Key: sess.store.Key()})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every document in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()

			sess, err := rootOpts.openSession(ctx, f)
			if err != nil {
				return err
			}
			defer sess.Close()

			collection := sess.store.Collection()
			docs, err := sess.db.Find(ctx, collection, nil)
			if err != nil {
				return f.Fail(err)
			}

			result := ListResult{Collection: collection, Documents: make([]DocumentResult, len(docs))}
			for i, doc := range docs {
				result.Documents[i] = DocumentResult{ID: doc.ID, Body: ir.ToAny(doc.Body)}
			}
			return f.Success(result)
		},
	}
}
