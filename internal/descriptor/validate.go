// File: internal/descriptor/validate.go
package descriptor

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"lakehouse/pkg/common"

	"github.com/go-playground/validator/v10"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError represents a descriptor validation error or warning.
type ValidationError struct {
	Field    string
	Message  string
	Severity Severity
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

func (ve ValidationError) IsError() bool {
	return ve.Severity == SeverityError
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Errors() ValidationErrors {
	return v.filter(SeverityError)
}

func (v ValidationErrors) Warnings() ValidationErrors {
	return v.filter(SeverityWarning)
}

func (v ValidationErrors) filter(s Severity) ValidationErrors {
	var out ValidationErrors
	for _, ve := range v {
		if ve.Severity == s {
			out = append(out, ve)
		}
	}
	return out
}

// Err folds the error-severity entries into a single error, or nil when there are none
func (v ValidationErrors) Err() error {
	errs := v.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("descriptor validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

var (
	bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*[a-z0-9]$`)
	datasetIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	labelKeyPattern   = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)
	labelValuePattern = regexp.MustCompile(`^[a-z0-9_-]{0,63}$`)
	envNamePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

const maxDatasetIDLength = 1024

// IsValidDatasetID reports whether id is usable as a BigQuery dataset id
func IsValidDatasetID(id string) bool {
	return len(id) <= maxDatasetIDLength && datasetIDPattern.MatchString(id)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their descriptor key rather than the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "gcs_bucket", func(fl validator.FieldLevel) bool { return IsValidBucketName(fl.Field().String()) })
	mustRegister(v, "bq_dataset", func(fl validator.FieldLevel) bool { return IsValidDatasetID(fl.Field().String()) })
	mustRegister(v, "label_key", func(fl validator.FieldLevel) bool { return labelKeyPattern.MatchString(fl.Field().String()) })
	mustRegister(v, "label_value", func(fl validator.FieldLevel) bool { return labelValuePattern.MatchString(fl.Field().String()) })
	mustRegister(v, "env_name", func(fl validator.FieldLevel) bool { return envNamePattern.MatchString(fl.Field().String()) })

	v.RegisterStructValidation(descriptorStructLevel, Descriptor{})
	v.RegisterStructValidation(lifecycleStructLevel, LifecycleRule{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering validation %s: %v", tag, err))
	}
}

func descriptorStructLevel(sl validator.StructLevel) {
	d := sl.Current().Interface().(Descriptor)
	if len(d.Buckets)+len(d.Datasets) == 0 {
		sl.ReportError(d.Buckets, "buckets", "Buckets", "min_resources", "")
	}
}

func lifecycleStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(LifecycleRule)
	if r.Action == "SetStorageClass" && r.StorageClass == "" {
		sl.ReportError(r.StorageClass, "storage_class", "StorageClass", "required_for_action", r.Action)
	}
	if r.Action != "SetStorageClass" && r.StorageClass != "" {
		sl.ReportError(r.StorageClass, "storage_class", "StorageClass", "excluded_for_action", r.Action)
	}
}

// IsValidBucketName applies the Cloud Storage bucket naming rules
func IsValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 222 {
		return false
	}
	if !strings.Contains(name, ".") && len(name) > 63 {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if len(part) == 0 || len(part) > 63 {
			return false
		}
	}
	if !bucketNamePattern.MatchString(name) {
		return false
	}
	if strings.HasPrefix(name, "goog") || strings.Contains(name, "google") {
		return false
	}
	return net.ParseIP(name) == nil
}

// Validate checks the descriptor for well-formedness. Errors block plan and
// apply; warnings are informational.
func Validate(d *Descriptor) ValidationErrors {
	var result ValidationErrors

	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return ValidationErrors{{Field: "descriptor", Message: err.Error(), Severity: SeverityError}}
		}
		for _, fe := range fieldErrs {
			result = append(result, ValidationError{
				Field:    fieldPath(fe),
				Message:  describe(fe),
				Severity: SeverityError,
			})
		}
	}

	result = append(result, locationWarnings(d)...)
	return result
}

func fieldPath(fe validator.FieldError) string {
	return strings.TrimPrefix(fe.Namespace(), "Descriptor.")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eq":
		return fmt.Sprintf("unsupported value %v (expected %s)", fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "unique":
		return fmt.Sprintf("contains duplicate %s values", strings.ToLower(fe.Param()))
	case "semver":
		return fmt.Sprintf("%q is not a semantic version", fe.Value())
	case "gcs_bucket":
		return fmt.Sprintf("%q is not a valid bucket name (3-63 lowercase letters, digits, '-', '_' or '.', starting and ending with a letter or digit)", fe.Value())
	case "bq_dataset":
		return fmt.Sprintf("%q is not a valid dataset id (up to 1024 letters, digits and underscores)", fe.Value())
	case "label_key":
		return fmt.Sprintf("label key %q must start with a lowercase letter and contain only lowercase letters, digits, '_' or '-'", fe.Value())
	case "label_value":
		return fmt.Sprintf("label value %q may contain only lowercase letters, digits, '_' or '-'", fe.Value())
	case "env_name":
		return fmt.Sprintf("%q is not a valid environment variable name", fe.Value())
	case "min_resources":
		return "at least one bucket or dataset must be declared"
	case "required_for_action":
		return fmt.Sprintf("is required for %s rules", fe.Param())
	case "excluded_for_action":
		return fmt.Sprintf("is only allowed for SetStorageClass rules, not %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// Buckets and datasets must live in the same location for data to be loaded
// between them; the remote API is the authority, so this is only a warning.
func locationWarnings(d *Descriptor) ValidationErrors {
	locations := make(map[string][]string)
	for _, b := range d.Buckets {
		if b.Location != "" {
			loc := strings.ToUpper(b.Location)
			locations[loc] = append(locations[loc], common.Address(common.KindBucket, b.Name))
		}
	}
	for _, ds := range d.Datasets {
		if ds.Location != "" {
			loc := strings.ToUpper(ds.Location)
			locations[loc] = append(locations[loc], common.DatasetAddress(ds.Project, ds.ID))
		}
	}
	if len(locations) <= 1 {
		return nil
	}

	keys := make([]string, 0, len(locations))
	for k := range locations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s (%s)", k, strings.Join(locations[k], ", ")))
	}
	return ValidationErrors{{
		Field:    "location",
		Message:  "resources are declared in different locations: " + strings.Join(parts, "; "),
		Severity: SeverityWarning,
	}}
}
