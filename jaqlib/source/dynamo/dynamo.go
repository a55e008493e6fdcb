// Package dynamo serves DynamoDB scan results as query records. Items are read
// page by page; map (M) and list (L) attributes serve nested mappings.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// Source scans a table anew for every fetch.
type Source struct {
	client dynamodb.ScanAPIClient
	input  dynamodb.ScanInput
}

// New scans with input. The input is copied; ExclusiveStartKey is managed by
// the paginator.
func New(client dynamodb.ScanAPIClient, input *dynamodb.ScanInput) *Source {
	return &Source{client: client, input: *input}
}

// Table scans the whole table.
func Table(client dynamodb.ScanAPIClient, table string) *Source {
	return New(client, &dynamodb.ScanInput{TableName: aws.String(table)})
}

func (s *Source) Open(ctx context.Context) (cursor.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input := s.input
	return &Cursor{
		ctx:       ctx,
		label:     aws.ToString(input.TableName),
		index:     -1,
		paginator: dynamodb.NewScanPaginator(s.client, &input),
	}, nil
}

// Cursor walks the items of the scanned pages. Each item is decoded into a
// plain document on arrival.
type Cursor struct {
	ctx       context.Context
	label     string
	paginator *dynamodb.ScanPaginator
	page      []map[string]types.AttributeValue
	pages     int
	index     int
	item      *cursor.Maps
	closed    bool
	done      bool
}

var _ cursor.Cursor = (*Cursor)(nil)

func (c *Cursor) Advance() (bool, error) {
	if c.closed {
		return false, &faults.DataSourceQueryError{Position: c.label, Err: fmt.Errorf("cursor is closed")}
	}
	c.item = nil
	c.index++
	for c.index >= len(c.page) {
		if c.done || !c.paginator.HasMorePages() {
			c.done = true
			return false, nil
		}
		out, err := c.paginator.NextPage(c.ctx)
		if err != nil {
			c.done = true
			return false, &faults.DataSourceQueryError{Position: c.Position(), Err: err}
		}
		c.page = out.Items
		c.pages++
		c.index = 0
	}
	doc, err := Decode(c.page[c.index])
	if err != nil {
		return false, &faults.DataSourceQueryError{Position: c.Position(), Err: err}
	}
	c.item = cursor.NewMaps(c.Position(), []map[string]any{doc})
	_, _ = c.item.Advance()
	return true, nil
}

func (c *Cursor) current() (*cursor.Maps, error) {
	if c.item == nil {
		return nil, &faults.DataSourceQueryError{Position: c.Position(), Err: fmt.Errorf("cursor is not positioned on an item")}
	}
	return c.item, nil
}

// ReadScalar returns S and N attributes as strings; converters parse them.
func (c *Cursor) ReadScalar(desc mapping.FieldDescriptor) (any, bool, error) {
	item, err := c.current()
	if err != nil {
		return nil, false, err
	}
	if desc.Positional() {
		return nil, false, &faults.DataSourceQueryError{
			Field:    desc.String(),
			Position: c.Position(),
			Err:      fmt.Errorf("items have no attribute order"),
		}
	}
	return item.ReadScalar(desc)
}

func (c *Cursor) HasField(name string) bool {
	item, err := c.current()
	if err != nil {
		return false
	}
	return item.HasField(name)
}

func (c *Cursor) Nested(source, element mapping.FieldDescriptor) (cursor.Cursor, error) {
	item, err := c.current()
	if err != nil {
		return nil, err
	}
	return item.Nested(source, element)
}

// Position names the table, the page and the item within it.
func (c *Cursor) Position() string {
	return fmt.Sprintf("%s page %d item %d", c.label, c.pages, c.index)
}

func (c *Cursor) Close() error {
	c.closed = true
	c.page = nil
	c.item = nil
	return nil
}

// Decode converts an item into a document of strings, byte slices, bools,
// maps and slices. Numbers stay strings so no precision is lost.
func Decode(item map[string]types.AttributeValue) (map[string]any, error) {
	doc := make(map[string]any, len(item))
	for name, av := range item {
		v, err := decodeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		doc[name] = v
	}
	return doc, nil
}

func decodeValue(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return v.Value, nil
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberM:
		return Decode(v.Value)
	case *types.AttributeValueMemberL:
		out := make([]any, len(v.Value))
		for i, e := range v.Value {
			d, err := decodeValue(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = d
		}
		return out, nil
	case *types.AttributeValueMemberSS:
		return v.Value, nil
	case *types.AttributeValueMemberNS:
		return v.Value, nil
	case *types.AttributeValueMemberBS:
		return v.Value, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported attribute value %T", av)
}
