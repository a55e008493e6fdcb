package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) *printer {
	return &printer{format: format, w: w}
}

func (p *printer) count(n int) error {
	if p.format == "json" {
		return json.NewEncoder(p.w).Encode(map[string]int{"count": n})
	}
	_, err := fmt.Fprintln(p.w, n)
	return err
}

func (p *printer) records(records []any) error {
	switch p.format {
	case "json":
		if records == nil {
			records = []any{}
		}
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "dump":
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		for _, r := range records {
			cfg.Fdump(p.w, r)
		}
		return nil
	}
	for _, r := range records {
		var fields []string
		flatten(&fields, "", reflect.ValueOf(r))
		if _, err := fmt.Fprintln(p.w, strings.Join(fields, " ")); err != nil {
			return err
		}
	}
	return nil
}

var timeType = reflect.TypeFor[time.Time]()

// flatten renders a record as name=value pairs; nested objects use dotted
// names and collections print their length.
func flatten(out *[]string, prefix string, v reflect.Value) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			*out = append(*out, prefix+"=<nil>")
			return
		}
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Struct && v.Type() != timeType:
		for i := 0; i < v.NumField(); i++ {
			name := v.Type().Field(i).Name
			if prefix != "" {
				name = prefix + "." + name
			}
			flatten(out, name, v.Field(i))
		}
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Struct:
		*out = append(*out, fmt.Sprintf("%s=[%d]", prefix, v.Len()))
	default:
		*out = append(*out, fmt.Sprintf("%s=%v", prefix, v.Interface()))
	}
}
