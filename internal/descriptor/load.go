// File: internal/descriptor/load.go
package descriptor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Load reads and decodes a descriptor file. overrides take precedence over
// the descriptor's own variable defaults.
func Load(path string, overrides map[string]string) (*Descriptor, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	d, err := Parse(data, overrides)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes descriptor bytes (YAML, or JSON as a YAML subset)
func Parse(data []byte, overrides map[string]string) (*Descriptor, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if raw == nil {
		return nil, errors.New("descriptor is empty")
	}

	vars, err := resolveVariables(raw["variables"], overrides)
	if err != nil {
		return nil, err
	}

	resolved, err := interpolateTree(raw, vars)
	if err != nil {
		return nil, err
	}

	var d Descriptor
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(wholeNumberHook),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(resolved); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}

	d.Variables = vars
	d.applyDefaults()
	return &d, nil
}

// wholeNumberHook stops weak decoding from truncating 1.5 into 1
func wholeNumberHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected a whole number, got %v", f)
		}
	}
	return data, nil
}
