package fetcher

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params holds query parameters. Values must be scalars: string, bool, any
// integer or float type, or nil. Nil and empty-string values are omitted from
// both the cache key and the outbound query; false and 0 are kept.
type Params map[string]any

// Encode renders p as a query string with keys in sorted order.
func (p Params) Encode() (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	values := make(url.Values, len(p))
	for k, v := range p {
		if k == "" {
			return "", fmt.Errorf("%w: empty parameter name", ErrInvalidParam)
		}
		s, ok, err := formatValue(v)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidParam, k, err)
		}
		if ok {
			values.Set(k, s)
		}
	}
	return values.Encode(), nil
}

// Key derives the cache key for endpoint and params. Parameter order does
// not matter.
func Key(endpoint string, params Params) (string, error) {
	if endpoint == "" {
		return "", ErrEmptyEndpoint
	}
	q, err := params.Encode()
	if err != nil {
		return "", err
	}
	return endpoint + "?" + q, nil
}

func formatValue(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, x != "", nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true, nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("unsupported type %T", v)
	}
}
