package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

const schemaURL = "manifest.schema.json"

var printer = message.NewPrinter(language.English)

// loadSchema compiles the embedded schema on first use.
var loadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema JSON: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return s, nil
})

// ValidationResult is the outcome of checking a manifest against the schema.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string // e.g. "/archive_hash"; empty for the document itself
	Message string
	Keyword string // failing schema keyword, e.g. "pattern"
}

// Validate checks YAML or JSON manifest bytes against the schema. Schema
// violations are reported in the result; the error is reserved for input that
// cannot be decoded at all.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	inst, err := toInstance(data)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	return &ValidationResult{Issues: issuesOf(ve)}, nil
}

// ValidateFile reads path and validates its contents.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

// toInstance decodes YAML (a superset of JSON) into the value the schema
// library validates, with version fields coerced to strings.
func toInstance(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if m, ok := doc.(map[string]any); ok {
		for _, key := range []string{"version", "min_app_version"} {
			if v, ok := m[key]; ok {
				m[key] = versionString(v)
			}
		}
	}

	// Round-trip through JSON so numbers arrive in the form the validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}
	return inst, nil
}

// versionString turns a bare YAML number (version: 7) into the string the
// decoder would produce for it.
func versionString(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return v
}

// issuesOf flattens the error tree into its leaves, sorted by location and
// without duplicates. Wrapper keywords carry no information of their own.
func issuesOf(root *jsonschema.ValidationError) []ValidationIssue {
	seen := map[ValidationIssue]bool{}
	var out []ValidationIssue

	var walk func(ve *jsonschema.ValidationError)
	walk = func(ve *jsonschema.ValidationError) {
		for _, c := range ve.Causes {
			walk(c)
		}
		if len(ve.Causes) > 0 || ve.ErrorKind == nil {
			return
		}
		kw := ve.ErrorKind.KeywordPath()
		if len(kw) == 0 {
			return
		}
		issue := ValidationIssue{
			Message: ve.ErrorKind.LocalizedString(printer),
			Keyword: kw[len(kw)-1],
		}
		if issue.Keyword == "allOf" || issue.Keyword == "$ref" {
			return
		}
		if len(ve.InstanceLocation) > 0 {
			issue.Path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		if !seen[issue] {
			seen[issue] = true
			out = append(out, issue)
		}
	}
	walk(root)

	if len(out) == 0 {
		return []ValidationIssue{{Message: root.Error()}}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
