package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	uncschema "github.com/uncovr/unc/schema"
)

// Problem is one schema violation in a settings document.
type Problem struct {
	// Path is the dotted settings path, e.g. "dev.pollInterval".
	Path    string
	Message string
}

// SchemaError lists every schema violation found in a settings document.
type SchemaError struct {
	Problems []Problem
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema validation failed:")
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "\n  - %s: %s", p.Path, p.Message)
	}
	return b.String()
}

var settingsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(uncschema.SettingsV1Name, bytes.NewReader(uncschema.SettingsV1Schema)); err != nil {
		return nil, fmt.Errorf("add settings schema resource: %w", err)
	}
	schema, err := compiler.Compile(uncschema.SettingsV1Name)
	if err != nil {
		return nil, fmt.Errorf("compile settings schema: %w", err)
	}
	return schema, nil
})

func validateAgainstSchema(doc map[string]any) error {
	schema, err := settingsSchema()
	if err != nil {
		return fmt.Errorf("load settings schema: %w", err)
	}

	// Round-trip through JSON so YAML scalars take the shapes the validator
	// expects.
	normalized, err := toJSONValue(doc)
	if err != nil {
		return fmt.Errorf("prepare settings for schema validation: %w", err)
	}

	err = schema.Validate(normalized)
	if err == nil {
		return nil
	}
	var vErr *jsonschema.ValidationError
	if !errors.As(err, &vErr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	out := &SchemaError{}
	collectProblems(vErr, &out.Problems)
	return out
}

func toJSONValue(doc map[string]any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// collectProblems flattens the validator's error tree into its leaves.
func collectProblems(err *jsonschema.ValidationError, out *[]Problem) {
	if len(err.Causes) == 0 {
		*out = append(*out, Problem{Path: settingsPath(err.InstanceLocation), Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collectProblems(cause, out)
	}
}

// settingsPath turns a JSON pointer into "dev.primary[0]" form.
func settingsPath(ptr string) string {
	var b strings.Builder
	for _, segment := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(strings.ReplaceAll(segment, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(segment); err == nil {
			fmt.Fprintf(&b, "[%s]", segment)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	if b.Len() == 0 {
		return "settings"
	}
	return b.String()
}
