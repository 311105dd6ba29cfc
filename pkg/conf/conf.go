// Package conf provides the generic configuration-decoding glue used by
// every component (the swarm index, persistence sinks, the authenticator,
// the HTTP frontend): a raw map decoded from YAML is unmarshalled into a
// typed, component-owned Config struct tagged with `cfg`.
package conf

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// MapConfig is a generic, untyped configuration block as parsed from YAML.
// Components decode it into their own typed Config via Unmarshal.
type MapConfig map[string]any

// Unmarshal decodes m into out, which must be a pointer to a struct whose
// fields are tagged with `cfg:"..."`. Durations are accepted either as
// time.Duration-parseable strings (e.g. "3s") or as integer seconds.
func (m MapConfig) Unmarshal(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "cfg",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			func(f, t reflect.Type, data any) (any, error) {
				if t != reflect.TypeOf(time.Duration(0)) || f == t {
					return data, nil
				}
				switch v := reflect.ValueOf(data); f.Kind() {
				case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
					return time.Duration(v.Int()) * time.Second, nil
				case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
					return time.Duration(v.Uint()) * time.Second, nil
				}
				return data, nil
			},
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(m))
}

// Duration returns a duration value from m, falling back to def if the key
// is absent or unparseable.
func (m MapConfig) Duration(key string, def time.Duration) time.Duration {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case time.Duration:
		return t
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			return d
		}
	}
	return def
}
