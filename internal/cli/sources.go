package cli

import (
	"context"
	"database/sql"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/source/dynamo"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/source/pgxrows"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/source/sqlrows"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/source/xmltree"
)

// SourceOptions selects and addresses the backend of a query.
type SourceOptions struct {
	Kind     string // "xml" | "sqlite" | "postgres" | "dynamodb"
	Input    string
	Record   string
	SQL      string
	DSN      string
	Table    string
	Region   string
	Endpoint string
}

var ValidSources = []string{"xml", "sqlite", "postgres", "dynamodb"}

// openSource returns the source and a function releasing its connection.
func openSource(ctx context.Context, opts SourceOptions, schema *mapping.Schema) (cursor.Source, func(), error) {
	noop := func() {}
	record := opts.Record
	if record == "" {
		record = schema.Record
	}

	switch opts.Kind {
	case "xml":
		if opts.Input == "" {
			return nil, noop, faults.NewConfigurationError("jaq query", "input", "--input is required for xml sources")
		}
		if record == "" {
			return nil, noop, faults.NewConfigurationError("jaq query", "record", "--record or the schema's record is required for xml sources")
		}
		src, err := xmltree.FromFile(opts.Input, record)
		return src, noop, err

	case "sqlite":
		if opts.Input == "" {
			return nil, noop, faults.NewConfigurationError("jaq query", "input", "--input is required for sqlite sources")
		}
		stmt, err := statement(opts.SQL, record)
		if err != nil {
			return nil, noop, err
		}
		db, err := sql.Open("sqlite3", opts.Input)
		if err != nil {
			return nil, noop, errors.Wrap(err, "unable to open sqlite database")
		}
		return sqlrows.New(db, stmt), func() { db.Close() }, nil

	case "postgres":
		stmt, err := statement(opts.SQL, record)
		if err != nil {
			return nil, noop, err
		}
		conn, err := pgx.Connect(ctx, opts.DSN)
		if err != nil {
			return nil, noop, errors.Wrap(err, "unable to connect to postgres")
		}
		return pgxrows.New(conn, stmt), func() { conn.Close(context.Background()) }, nil

	case "dynamodb":
		table := opts.Table
		if table == "" {
			table = record
		}
		if table == "" {
			return nil, noop, faults.NewConfigurationError("jaq query", "table", "--table or the schema's record is required for dynamodb sources")
		}
		var loadOpts []func(*config.LoadOptions) error
		if opts.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(opts.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, noop, errors.Wrap(err, "unable to load AWS config")
		}
		client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
		})
		return dynamo.Table(client, table), noop, nil
	}
	return nil, noop, faults.NewConfigurationError("jaq query", "source", "unknown source %q: must be one of %v", opts.Kind, ValidSources)
}

func statement(stmt, table string) (string, error) {
	switch {
	case stmt != "":
		return stmt, nil
	case table != "":
		return "SELECT * FROM " + table, nil
	}
	return "", faults.NewConfigurationError("jaq query", "sql", "--sql or the schema's record is required for sql sources")
}
