package rebate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed tables.schema.json
var tablesSchema []byte

const tablesSchemaURL = "tables.schema.json"

// LoadTables reads reference tables from a YAML file. Sections the file omits
// keep their built-in values.
func LoadTables(path string) (*Tables, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open rebate tables: %w", err)
	}
	defer func() { _ = f.Close() }()

	tables, err := ReadTables(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	slog.Debug("Loaded rebate tables",
		"path", path,
		"postcodes", len(tables.PostcodeZones),
		"battery_rules", len(tables.BatteryRebates),
		"vpp_incentives", len(tables.VPPIncentives))
	return tables, nil
}

// ReadTables decodes, schema-validates and merges a YAML tables document.
func ReadTables(r io.Reader) (*Tables, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}

	if err := ValidateTablesDocument(raw); err != nil {
		return nil, err
	}

	var doc Tables
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}

	tables := DefaultTables()
	if doc.ZoneMultipliers != nil {
		tables.ZoneMultipliers = doc.ZoneMultipliers
	}
	if doc.PostcodeZones != nil {
		tables.PostcodeZones = doc.PostcodeZones
	}
	if doc.StateDefaultZones != nil {
		tables.StateDefaultZones = doc.StateDefaultZones
	}
	if doc.BatteryRebates != nil {
		tables.BatteryRebates = doc.BatteryRebates
	}
	if doc.VPPIncentives != nil {
		tables.VPPIncentives = doc.VPPIncentives
	}
	tables = tables.normalized()

	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}

// ValidateTablesDocument checks a YAML tables document against the embedded schema.
func ValidateTablesDocument(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round-trip through JSON so the validator sees the same types json.Unmarshal produces.
	data, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}

	schema, err := compileTablesSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}
	return nil
}

func compileTablesSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(tablesSchemaURL, bytes.NewReader(tablesSchema)); err != nil {
		return nil, fmt.Errorf("failed to add tables schema: %w", err)
	}
	schema, err := compiler.Compile(tablesSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tables schema: %w", err)
	}
	return schema, nil
}

// jsonCompatible converts YAML maps with non-string keys into string-keyed maps.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	default:
		return v
	}
}
