package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/mail"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScalarSchema validates a JSON scalar.
type ScalarSchema struct {
	kind  string
	test  func(v any) (code, msg string)
	oneOf []int64
}

// Kind implements Schema.
func (s *ScalarSchema) Kind() string { return s.kind }

// OneOf returns a copy of s that only accepts the given integer values.
// It is used for OCSF enumerated identifiers.
func (s *ScalarSchema) OneOf(values ...int64) *ScalarSchema {
	c := *s
	c.oneOf = slices.Clone(values)
	slices.Sort(c.oneOf)
	return &c
}

// Allowed returns the permitted values set by OneOf, in ascending order.
func (s *ScalarSchema) Allowed() []int64 { return s.oneOf }

func (s *ScalarSchema) check(v any, p path, is *Issues) {
	if code, msg := s.test(v); code != "" {
		is.add(p, code, "%s", msg)
		return
	}
	if len(s.oneOf) == 0 {
		return
	}
	n, ok := integer(v)
	if !ok || !slices.Contains(s.oneOf, n) {
		is.add(p, CodeNotAllowed, "value %v is not one of %v", v, s.oneOf)
	}
}

func scalar(kind string, test func(v any) (string, string)) *ScalarSchema {
	return &ScalarSchema{kind: kind, test: test}
}

func mismatch(kind string, v any) (string, string) {
	return CodeInvalidType, fmt.Sprintf("expected %s, got %s", kind, typeOf(v))
}

// String accepts any JSON string.
func String() *ScalarSchema {
	return scalar("string", func(v any) (string, string) {
		if _, ok := v.(string); !ok {
			return mismatch("string", v)
		}
		return "", ""
	})
}

// Bool accepts JSON booleans.
func Bool() *ScalarSchema {
	return scalar("boolean", func(v any) (string, string) {
		if _, ok := v.(bool); !ok {
			return mismatch("boolean", v)
		}
		return "", ""
	})
}

// Float accepts any JSON number.
func Float() *ScalarSchema {
	return scalar("number", func(v any) (string, string) {
		if _, ok := number(v); !ok {
			return mismatch("number", v)
		}
		return "", ""
	})
}

func bounded(kind string, lo, hi int64) *ScalarSchema {
	return scalar(kind, func(v any) (string, string) {
		n, ok := integer(v)
		if !ok {
			return mismatch(kind, v)
		}
		if n < lo || n > hi {
			return CodeOutOfRange, fmt.Sprintf("%d is outside the %s range [%d, %d]", n, kind, lo, hi)
		}
		return "", ""
	})
}

// Int accepts integers in the signed 32-bit range (OCSF integer_t).
func Int() *ScalarSchema { return bounded("integer", math.MinInt32, math.MaxInt32) }

// Long accepts signed 64-bit integers (OCSF long_t).
func Long() *ScalarSchema { return bounded("long", math.MinInt64, math.MaxInt64) }

// Port accepts TCP/UDP port numbers.
func Port() *ScalarSchema { return bounded("port", 0, math.MaxUint16) }

// Timestamp accepts milliseconds since the Unix epoch (OCSF timestamp_t).
func Timestamp() *ScalarSchema { return bounded("timestamp", 0, math.MaxInt64) }

func format(kind string, parse func(string) error) *ScalarSchema {
	return scalar(kind, func(v any) (string, string) {
		s, ok := v.(string)
		if !ok {
			return mismatch(kind, v)
		}
		if err := parse(s); err != nil {
			return CodeInvalidFormat, fmt.Sprintf("invalid %s %q", kind, s)
		}
		return "", ""
	})
}

// Datetime accepts RFC 3339 date-time strings.
func Datetime() *ScalarSchema {
	return format("datetime", func(s string) error {
		_, err := time.Parse(time.RFC3339Nano, s)
		return err
	})
}

// IP accepts IPv4 and IPv6 addresses.
func IP() *ScalarSchema {
	return format("ip", func(s string) error {
		_, err := netip.ParseAddr(s)
		return err
	})
}

// CIDR accepts IP prefixes such as 10.0.0.0/8.
func CIDR() *ScalarSchema {
	return format("subnet", func(s string) error {
		_, err := netip.ParsePrefix(s)
		return err
	})
}

// MAC accepts hardware addresses.
func MAC() *ScalarSchema {
	return format("mac", func(s string) error {
		_, err := net.ParseMAC(s)
		return err
	})
}

// Email accepts RFC 5322 addresses.
func Email() *ScalarSchema {
	return format("email", func(s string) error {
		_, err := mail.ParseAddress(s)
		return err
	})
}

// URL accepts absolute or relative URLs.
func URL() *ScalarSchema {
	return format("url", func(s string) error {
		_, err := url.Parse(s)
		return err
	})
}

// UUID accepts RFC 4122 identifiers.
func UUID() *ScalarSchema {
	return format("uuid", func(s string) error {
		_, err := uuid.Parse(s)
		return err
	})
}

// Hostname accepts DNS names up to 253 characters.
func Hostname() *ScalarSchema {
	return format("hostname", func(s string) error {
		if s == "" || len(s) > 253 || strings.ContainsAny(s, " \t\r\n/") {
			return fmt.Errorf("bad hostname")
		}
		return nil
	})
}

// Any accepts every value, including null. It is the fallback for OCSF
// types the generator does not model.
func Any() *ScalarSchema {
	return scalar("any", func(any) (string, string) { return "", "" })
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := number(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
