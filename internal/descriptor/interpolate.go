// File: internal/descriptor/interpolate.go
package descriptor

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// VarEnvPrefix lets the environment override a variable: LAKEHOUSE_VAR_bucket_name=...
const VarEnvPrefix = "LAKEHOUSE_VAR_"

// Matches ${...} not preceded by an escaping '$'
var referencePattern = regexp.MustCompile(`\$?\$\{([^}]*)\}`)

func resolveVariables(rawVars interface{}, overrides map[string]string) (map[string]string, error) {
	vars := make(map[string]string)

	if rawVars != nil {
		m, ok := rawVars.(map[string]interface{})
		if !ok {
			return nil, errors.New("variables must be a mapping of name to value")
		}
		for k, v := range m {
			switch val := v.(type) {
			case string:
				vars[k] = val
			case int, bool, float64:
				vars[k] = fmt.Sprint(val)
			case nil:
				vars[k] = ""
			default:
				return nil, fmt.Errorf("variable %q must be a scalar", k)
			}
		}
	}

	for k := range vars {
		if v, ok := os.LookupEnv(VarEnvPrefix + k); ok {
			vars[k] = v
		}
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars, nil
}

// interpolateTree substitutes references in every string of the raw document except the variables block itself
func interpolateTree(raw map[string]interface{}, vars map[string]string) (map[string]interface{}, error) {
	var problems []string

	var walk func(path string, v interface{}) interface{}
	walk = func(path string, v interface{}) interface{} {
		switch val := v.(type) {
		case map[string]interface{}:
			out := make(map[string]interface{}, len(val))
			for k, child := range val {
				if path == "" && k == "variables" {
					continue
				}
				out[k] = walk(joinPath(path, k), child)
			}
			return out
		case []interface{}:
			out := make([]interface{}, len(val))
			for i, child := range val {
				out[i] = walk(fmt.Sprintf("%s[%d]", path, i), child)
			}
			return out
		case string:
			s, errs := interpolate(val, vars)
			for _, e := range errs {
				problems = append(problems, fmt.Sprintf("%s: %s", path, e))
			}
			return s
		default:
			return v
		}
	}

	out := walk("", raw).(map[string]interface{})
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("unresolved references:\n  %s", strings.Join(problems, "\n  "))
	}
	return out, nil
}

// interpolate resolves ${var.name} and ${env:NAME}. "$${" yields a literal "${".
// Any other expression is rejected so that a descriptor always renders the
// same way for the same inputs.
func interpolate(s string, vars map[string]string) (string, []string) {
	var errs []string

	out := referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "$$") {
			return match[1:]
		}

		expr := strings.TrimSpace(match[2 : len(match)-1])
		switch {
		case strings.HasPrefix(expr, "var."):
			name := strings.TrimPrefix(expr, "var.")
			v, ok := vars[name]
			if !ok {
				errs = append(errs, fmt.Sprintf("undefined variable %q", name))
				return match
			}
			return v
		case strings.HasPrefix(expr, "env:"):
			name := strings.TrimPrefix(expr, "env:")
			v, ok := os.LookupEnv(name)
			if !ok {
				errs = append(errs, fmt.Sprintf("environment variable %q is not set", name))
				return match
			}
			return v
		default:
			errs = append(errs, fmt.Sprintf("unsupported expression %q (only var.<name> and env:<NAME> are allowed)", expr))
			return match
		}
	})
	return out, errs
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
