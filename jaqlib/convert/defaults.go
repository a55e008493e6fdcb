package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

// timeLayouts are tried in order when a time.Time is parsed from text.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func registerSigned[T ~int | ~int8 | ~int16 | ~int32 | ~int64](reg *Registry, bits int) {
	expected := fmt.Sprintf("%T", T(0))
	Register(reg, func(raw any) (T, error) {
		i, err := toInt64(raw)
		if err != nil {
			return 0, faults.NewConversionError(raw, expected, err)
		}
		if bits < 64 && (i < -(1<<(bits-1)) || i > 1<<(bits-1)-1) {
			return 0, faults.NewConversionError(raw, expected, strconv.ErrRange)
		}
		return T(i), nil
	})
}

func registerUnsigned[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](reg *Registry, bits int) {
	expected := fmt.Sprintf("%T", T(0))
	Register(reg, func(raw any) (T, error) {
		u, err := toUint64(raw)
		if err != nil {
			return 0, faults.NewConversionError(raw, expected, err)
		}
		if bits < 64 && u > 1<<bits-1 {
			return 0, faults.NewConversionError(raw, expected, strconv.ErrRange)
		}
		return T(u), nil
	})
}

// NewDefaultRegistry creates a registry with converters for the basic Go kinds,
// time values, byte slices, uuid.UUID and ulid.ULID.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()

	registerSigned[int](reg, strconv.IntSize)
	registerSigned[int8](reg, 8)
	registerSigned[int16](reg, 16)
	registerSigned[int32](reg, 32)
	registerSigned[int64](reg, 64)
	registerUnsigned[uint](reg, strconv.IntSize)
	registerUnsigned[uint8](reg, 8)
	registerUnsigned[uint16](reg, 16)
	registerUnsigned[uint32](reg, 32)
	registerUnsigned[uint64](reg, 64)

	Register(reg, func(raw any) (float64, error) {
		f, err := toFloat64(raw)
		if err != nil {
			return 0, faults.NewConversionError(raw, "float64", err)
		}
		return f, nil
	})
	Register(reg, func(raw any) (float32, error) {
		f, err := toFloat64(raw)
		if err != nil {
			return 0, faults.NewConversionError(raw, "float32", err)
		}
		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return 0, faults.NewConversionError(raw, "float32", strconv.ErrRange)
		}
		return float32(f), nil
	})

	Register(reg, func(raw any) (bool, error) {
		b, err := toBool(raw)
		if err != nil {
			return false, faults.NewConversionError(raw, "bool", err)
		}
		return b, nil
	})

	reg.Register(NewReversible(func(raw any) (string, error) {
		s, err := toString(raw)
		if err != nil {
			return "", faults.NewConversionError(raw, "string", err)
		}
		return s, nil
	}, nil))

	reg.Register(NewReversible(func(raw any) ([]byte, error) {
		switch v := raw.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		case json.RawMessage:
			return []byte(v), nil
		}
		return nil, faults.NewConversionError(raw, "[]byte", nil)
	}, nil))

	reg.Register(NewReversible(toTime, func(t time.Time) (any, error) {
		return t.Format(time.RFC3339Nano), nil
	}))

	Register(reg, func(raw any) (time.Duration, error) {
		switch v := raw.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return 0, faults.NewConversionError(raw, "time.Duration", err)
			}
			return d, nil
		}
		n, err := toInt64(raw)
		if err != nil {
			return 0, faults.NewConversionError(raw, "time.Duration", err)
		}
		return time.Duration(n), nil
	})

	reg.Register(NewReversible(toUUID, func(id uuid.UUID) (any, error) {
		return id.String(), nil
	}))

	reg.Register(NewReversible(toULID, func(id ulid.ULID) (any, error) {
		return id.String(), nil
	}))

	return reg
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint64(v)
		if u > math.MaxInt64 {
			return 0, strconv.ErrRange
		}
		return int64(u), nil
	case float32:
		return integral(float64(v))
	case float64:
		return integral(v)
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported raw type %T", raw)
}

func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		return strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseUint(strings.TrimSpace(string(v)), 10, 64)
	case json.Number:
		return strconv.ParseUint(v.String(), 10, 64)
	}
	i, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, strconv.ErrRange
	}
	return uint64(i), nil
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is not an integral value", f)
	}
	return int64(f), nil
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint64(v)
		return float64(u), nil
	}
	i, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	return float64(i), nil
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(v)))
	}
	i, err := toInt64(raw)
	if err != nil {
		return false, err
	}
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%d is not a boolean", i)
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int, int8, int16, int32, int64:
		i, _ := toInt64(v)
		return strconv.FormatInt(i, 10), nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint64(v)
		return strconv.FormatUint(u, 10), nil
	}
	return "", fmt.Errorf("unsupported raw type %T", raw)
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
		return time.Time{}, nil
	case string:
		return parseTime(raw, v)
	case []byte:
		return parseTime(raw, string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	}
	return time.Time{}, faults.NewConversionError(raw, "time.Time", nil)
}

func parseTime(raw any, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, faults.NewConversionError(raw, "time.Time", lastErr)
}

func toUUID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return uuid.Nil, faults.NewConversionError(raw, "uuid.UUID", err)
		}
		return id, nil
	case []byte:
		if len(v) == 16 {
			id, err := uuid.FromBytes(v)
			if err != nil {
				return uuid.Nil, faults.NewConversionError(raw, "uuid.UUID", err)
			}
			return id, nil
		}
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return uuid.Nil, faults.NewConversionError(raw, "uuid.UUID", err)
		}
		return id, nil
	}
	return uuid.Nil, faults.NewConversionError(raw, "uuid.UUID", nil)
}

func toULID(raw any) (ulid.ULID, error) {
	switch v := raw.(type) {
	case ulid.ULID:
		return v, nil
	case string:
		id, err := ulid.Parse(strings.TrimSpace(v))
		if err != nil {
			return ulid.ULID{}, faults.NewConversionError(raw, "ulid.ULID", err)
		}
		return id, nil
	case []byte:
		var id ulid.ULID
		if len(v) == len(id) {
			copy(id[:], v)
			return id, nil
		}
		if err := id.UnmarshalText(v); err != nil {
			return ulid.ULID{}, faults.NewConversionError(raw, "ulid.ULID", err)
		}
		return id, nil
	}
	return ulid.ULID{}, faults.NewConversionError(raw, "ulid.ULID", nil)
}
