package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/datacanary/datacanary/pkg/coltype"
)

// Stored value representations by kind:
//
//	integers     int64 (signed) / uint64 (unsigned)
//	floats       float64
//	decimal      float64, rounded to scale at cast time
//	string, categorical  string
//	binary       []byte
//	boolean      bool
//	date, datetime, time  time.Time
//
// nil is null for every kind and casts to nil unchanged.

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
	timeLayout     = "15:04:05"
)

func castValue(v any, target coltype.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch target.Kind {
	case coltype.KindString, coltype.KindCategorical:
		return formatValue(v), nil
	case coltype.KindBinary:
		return []byte(formatValue(v)), nil
	case coltype.KindBoolean:
		return castBool(v)
	case coltype.KindFloat32, coltype.KindFloat64:
		return castFloat(v)
	case coltype.KindDecimal:
		return castDecimal(v, target)
	case coltype.KindDate:
		return castTemporal(v, dateLayout, "date")
	case coltype.KindDatetime:
		return castTemporal(v, datetimeLayout, "datetime")
	case coltype.KindTime:
		return castTemporal(v, timeLayout, "time")
	default:
		if target.IsInteger() {
			return castInteger(v, target)
		}
		return nil, fmt.Errorf("unsupported target type %s", target)
	}
}

// formatValue renders a stored value as its canonical string form.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(datetimeLayout)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func castBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case uint64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("cannot cast %q to Boolean", x)
	}
	return nil, fmt.Errorf("cannot cast %v (%T) to Boolean", v, v)
}

func castFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		if x {
			return float64(1), nil
		}
		return float64(0), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to float", x)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot cast %v (%T) to float", v, v)
}

func castInteger(v any, target coltype.Type) (any, error) {
	minBound, maxBound, _ := target.Bounds()
	signed := target.Kind == coltype.KindInt8 || target.Kind == coltype.KindInt16 ||
		target.Kind == coltype.KindInt32 || target.Kind == coltype.KindInt64

	toSigned := func(n int64) (any, error) {
		if n < minBound || (n > 0 && uint64(n) > maxBound) {
			return nil, fmt.Errorf("value %d out of range for %s", n, target)
		}
		return n, nil
	}
	toUnsigned := func(n uint64) (any, error) {
		if n > maxBound {
			return nil, fmt.Errorf("value %d out of range for %s", n, target)
		}
		return n, nil
	}

	switch x := v.(type) {
	case int64:
		if signed {
			return toSigned(x)
		}
		if x < 0 {
			return nil, fmt.Errorf("value %d out of range for %s", x, target)
		}
		return toUnsigned(uint64(x))
	case uint64:
		if signed {
			if x > uint64(math.MaxInt64) {
				return nil, fmt.Errorf("value %d out of range for %s", x, target)
			}
			return toSigned(int64(x))
		}
		return toUnsigned(x)
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("value %v is not integral", x)
		}
		if signed {
			if x < float64(minBound) || x > float64(maxBound) {
				return nil, fmt.Errorf("value %v out of range for %s", x, target)
			}
			return int64(x), nil
		}
		if x < 0 || x > float64(maxBound) {
			return nil, fmt.Errorf("value %v out of range for %s", x, target)
		}
		return uint64(x), nil
	case bool:
		var n int64
		if x {
			n = 1
		}
		if signed {
			return n, nil
		}
		return uint64(n), nil
	case string:
		s := strings.TrimSpace(x)
		if signed {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot cast %q to %s", x, target)
			}
			return toSigned(n)
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to %s", x, target)
		}
		return toUnsigned(n)
	}
	return nil, fmt.Errorf("cannot cast %v (%T) to %s", v, v, target)
}

// castDecimal converts to float64 and rounds to the declared scale. With
// parameters present the rounded value must fit the declared precision,
// so a bad cast is reported instead of silently truncating digits.
func castDecimal(v any, target coltype.Type) (any, error) {
	fv, err := castFloat(v)
	if err != nil {
		return nil, err
	}
	f := fv.(float64)
	if target.Precision <= 0 {
		return f, nil
	}
	pow := math.Pow(10, float64(target.Scale))
	rounded := math.Round(f*pow) / pow
	limit := math.Pow(10, float64(target.Precision-target.Scale))
	if math.Abs(rounded) >= limit {
		return nil, fmt.Errorf("value %v does not fit %s", f, target)
	}
	return rounded, nil
}

func castTemporal(v any, layout, what string) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return truncateTemporal(x, what), nil
	case string:
		s := strings.TrimSpace(x)
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
		// Accept the richer forms and truncate down.
		for _, l := range []string{time.RFC3339, datetimeLayout, dateLayout} {
			if t, err := time.Parse(l, s); err == nil {
				return truncateTemporal(t, what), nil
			}
		}
		return nil, fmt.Errorf("cannot cast %q to %s", x, what)
	}
	return nil, fmt.Errorf("cannot cast %v (%T) to %s", v, v, what)
}

func truncateTemporal(t time.Time, what string) time.Time {
	switch what {
	case "date":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case "time":
		return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	default:
		return t
	}
}
