package cli

import (
	"context"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/query"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/session"
)

type QueryOptions struct {
	Source  SourceOptions
	Mapping string
	Where   []string
	Any     bool
	Count   bool
	First   bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query records through a YAML mapping",
		Long: `Read records from a source, materialize them as the mapping schema
describes and print those matching every --where filter.

Filters read "<field> <operator> [<value>]", for example
  --where "Balance > 5000" --where "Owner.City = Graz" --where "Email null"`,
		Example: `  jaq query --source xml --input bank.xml --record accounts/account --mapping account.yaml
  jaq query --source sqlite --input bank.db --sql "SELECT * FROM accounts" --mapping account.yaml --count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source.Kind, "source", "xml", "source kind (xml|sqlite|postgres|dynamodb)")
	cmd.Flags().StringVarP(&opts.Source.Input, "input", "i", "", "xml document or sqlite database file")
	cmd.Flags().StringVar(&opts.Source.Record, "record", "", "record element path or table (defaults to the schema's record)")
	cmd.Flags().StringVar(&opts.Source.SQL, "sql", "", "SQL statement for sql sources")
	cmd.Flags().StringVar(&opts.Source.DSN, "dsn", "", "postgres connection string")
	cmd.Flags().StringVar(&opts.Source.Table, "table", "", "dynamodb table")
	cmd.Flags().StringVar(&opts.Source.Region, "region", "", "AWS region")
	cmd.Flags().StringVar(&opts.Source.Endpoint, "endpoint", "", "dynamodb endpoint override")
	cmd.Flags().StringVarP(&opts.Mapping, "mapping", "m", "", "mapping schema (YAML)")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "filter condition, repeatable")
	cmd.Flags().BoolVar(&opts.Any, "any", false, "join filters with OR instead of AND")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matches only")
	cmd.Flags().BoolVar(&opts.First, "first", false, "print the first match only")
	_ = cmd.MarkFlagRequired("mapping")
	cmd.MarkFlagsMutuallyExclusive("count", "first")

	return cmd
}

func newSession(rootOpts *RootOptions, cmd *cobra.Command) (*session.Session, error) {
	var cfg session.Config
	if rootOpts.Config != "" {
		var err error
		if cfg, err = session.LoadConfigFile(rootOpts.Config); err != nil {
			return nil, err
		}
	}
	if rootOpts.Strict {
		cfg.Strict = true
	}
	opts, err := cfg.Options(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return session.New(opts...), nil
}

func runQuery(ctx context.Context, rootOpts *RootOptions, opts *QueryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sess, err := newSession(rootOpts, cmd)
	if err != nil {
		return err
	}

	schema, err := mapping.LoadSchemaFile(opts.Mapping)
	if err != nil {
		return err
	}
	record, err := recordType(schema.Fields)
	if err != nil {
		return err
	}
	tree, err := schema.Tree(record, sess.Converters())
	if err != nil {
		return err
	}

	filters := make([]filter, 0, len(opts.Where))
	for _, expr := range opts.Where {
		f, err := parseFilter(expr)
		if err != nil {
			return err
		}
		if f, err = f.typed(record, sess.Converters()); err != nil {
			return err
		}
		filters = append(filters, f)
	}
	_, rec, err := sess.Recorders().New(reflect.PointerTo(record))
	if err != nil {
		return err
	}

	src, release, err := openSource(ctx, opts.Source, schema)
	if err != nil {
		return err
	}
	defer release()

	q := apply(query.Select[any](sess).From(src).Using(tree), rec, filters, opts.Any)
	out := newPrinter(rootOpts.Format, cmd.OutOrStdout())

	switch {
	case opts.Count:
		n, err := q.Count(ctx)
		if err != nil {
			return err
		}
		return out.count(n)
	case opts.First:
		first, err := q.AsFirst(ctx)
		if err != nil {
			return err
		}
		var records []any
		if v, ok := first.Get(); ok {
			records = append(records, v)
		}
		return out.records(records)
	}
	records, err := q.AsList(ctx)
	if err != nil {
		return err
	}
	return out.records(records)
}
