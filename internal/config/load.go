// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/authflow/authflow/internal/xdg"
)

// EnvKeys maps the environment variables authflow reads to config keys.
var EnvKeys = map[string]string{
	"DATABASE_URL":            "database.url",
	"REDIS_URL":               "redis.url",
	"AUTHFLOW_SESSION_SECRET": "session.secret",
	"AUTHFLOW_CLIENT_URL":     "client.url",
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an explicit config file. It must exist. When empty the XDG
	// default is used if present.
	File string

	// Flags, if set, override file values for every flag in FlagKeys the
	// user actually set.
	Flags    *pflag.FlagSet
	FlagKeys map[string]string

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load layers defaults, file, flags and environment into a Config. It does
// not validate; callers validate what they need.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(structToMap(Default())), nil); err != nil {
		return nil, oops.Code(CodeInvalid).With("source", "defaults").Wrap(err)
	}

	path, err := resolveFile(opts.File)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Code(CodeInvalid).With("file", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code(CodeInvalid).With("file", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).With("file", path).Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := opts.FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalid).With("source", "flags").Wrap(err)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := k.Load(envProvider(getenv), nil); err != nil {
		return nil, oops.Code(CodeInvalid).With("source", "env").Wrap(err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalid).With("source", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

func resolveFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", oops.Code(CodeInvalid).With("file", explicit).Wrap(err)
		}
		return explicit, nil
	}

	path := xdg.ConfigFile()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code(CodeInvalid).With("file", path).Wrap(err)
	}
	return path, nil
}

// mapProvider feeds a nested map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// envProvider reads the variables in EnvKeys. Unset and empty variables are
// skipped so they never blank out a file value.
func envProvider(getenv func(string) string) mapProvider {
	out := mapProvider{}
	for name, key := range EnvKeys {
		if val := getenv(name); val != "" {
			setPath(out, key, val)
		}
	}
	return out
}

func setPath(m map[string]any, key string, val any) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

// structToMap converts a config struct to a nested map keyed by koanf tags.
func structToMap(v any) map[string]any {
	out := map[string]any{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		tag := field.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Struct {
			out[tag] = structToMap(fv.Interface())
			continue
		}
		out[tag] = fv.Interface()
	}
	return out
}
