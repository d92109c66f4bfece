package conf

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration configured as text: Go syntax ("30s",
// "1h30m"), a whole-day prefix ("7d", "1d12h") or a bare integer of
// nanoseconds. It is written back in Go syntax.
type Duration time.Duration

const day = 24 * time.Hour

// ParseDuration parses the forms Duration accepts.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if nanos, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(nanos), nil
	}

	var days time.Duration
	if i := strings.IndexByte(s, 'd'); i > 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q: bad day count", s)
		}
		days = time.Duration(n) * day
		s = s[i+1:]
		if s == "" {
			return Duration(days), nil
		}
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: expected a value like \"30s\", \"5m\" or \"7d\"", s)
	}
	if days > 0 && parsed < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative part after days", s)
	}
	return Duration(days + parsed), nil
}

// Std converts Duration to a standard time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Or returns def when d is zero or negative.
func (d Duration) Or(def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return time.Duration(d)
}

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string, a number of nanoseconds or null.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case nil:
		*d = 0
		return nil
	case float64:
		*d = Duration(int64(value))
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("invalid duration value: %v (type %T)", v, v)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar duration value, got %v", value.Kind)
	}
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DurationDecodeHook is the mapstructure hook viper uses for Settings.
// Plain time.Duration fields and comma-separated string slices keep the
// stock conversions.
func DurationDecodeHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeFor[Duration]()
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(func(_, to reflect.Type, data any) (any, error) {
			if to != target {
				return data, nil
			}
			switch v := data.(type) {
			case string:
				return ParseDuration(v)
			case int:
				return Duration(v), nil
			case int64:
				return Duration(v), nil
			case float64:
				return Duration(int64(v)), nil
			}
			return data, nil
		}),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
