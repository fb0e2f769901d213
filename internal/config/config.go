package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every `env` struct tag when reading the environment.
const EnvPrefix = "TYNCAN_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig fills a flat options struct with precedence CLI flags > env vars > config file.
//
// Fields are bound through tags: `toml:"server.port"` reads a dotted path from
// the TOML file named by the struct's Config field, `env:"SERVER_PORT"` reads
// TYNCAN_SERVER_PORT. Fields whose flag was set explicitly on cmd are left alone.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changed := changedFlags(cmd)
	skip := func(field reflect.StructField) bool {
		return changed[fieldNameToFlag(field.Name)]
	}

	if cfgField := v.FieldByName("Config"); cfgField.IsValid() && cfgField.Kind() == reflect.String && cfgField.String() != "" {
		raw, err := readTOML(cfgField.String())
		if err != nil {
			return err
		}
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			path := field.Tag.Get("toml")
			if path == "" || skip(field) {
				continue
			}
			if value := getNestedValue(raw, path); value != nil {
				setFieldValue(v.Field(i), value)
			}
		}
	}

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("env")
		if key == "" || skip(field) {
			continue
		}
		if value, ok := os.LookupEnv(EnvPrefix + key); ok && value != "" {
			setFieldValueFromString(v.Field(i), value)
		}
	}

	return nil
}

// readTOML returns the decoded file, or nil when it does not exist.
func readTOML(path string) (map[string]any, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return raw, nil
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	visit := func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = true
		}
	}
	cmd.Flags().VisitAll(visit)
	cmd.PersistentFlags().VisitAll(visit)
	return changed
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	var b strings.Builder
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	current := data
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[parts[len(parts)-1]]
}

// setFieldValue assigns a decoded TOML value. Mismatched types are ignored.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		switch val := value.(type) {
		case string:
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
		case int64:
			field.SetInt(val * int64(time.Second))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		switch val := value.(type) {
		case int64:
			field.SetInt(val)
		case int:
			field.SetInt(int64(val))
		}
	case reflect.Slice:
		arr, ok := value.([]any)
		if !ok || field.Type().Elem().Kind() != reflect.String {
			return
		}
		slice := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, isString := item.(string); isString {
				slice = append(slice, s)
			}
		}
		field.Set(reflect.ValueOf(slice))
	}
}

// setFieldValueFromString parses an environment value into the field's type.
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		if d, err := time.ParseDuration(value); err == nil {
			field.SetInt(int64(d))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	}
}
