// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// configSchema is embedded in config.go and available to tests via the same package.

// =============================================================================
// Schema Sync Tests
// =============================================================================
// These tests verify Go struct JSON tags match CUE schema field names.
// They catch misalignments at CI time, preventing silent parsing failures.

// extractCUEFields extracts all field names from a CUE struct definition.
// It returns a map of field names to whether the field is optional.
// Nested struct fields are not included; only top-level fields of the given definition.
func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)

	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}

	for iter.Next() {
		sel := iter.Selector()
		// Skip hidden fields (start with _) and definitions (start with #)
		labelType := sel.LabelType()
		if labelType.IsHidden() || sel.IsDefinition() {
			continue
		}

		// The selector string may include the "?" suffix for optional fields
		// We need to strip it to get the actual field name
		fieldName := sel.String()
		fieldName = strings.TrimSuffix(fieldName, "?")
		isOptional := iter.IsOptional()
		fields[fieldName] = isOptional
	}

	return fields
}

// extractGoJSONTags extracts all JSON field names from a Go struct using reflection.
// It returns a map of JSON tag names to whether the field has "omitempty".
// Fields with json:"-" are excluded.
func extractGoJSONTags(t *testing.T, typ reflect.Type) map[string]bool {
	t.Helper()

	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		t.Fatalf("expected struct type, got %s", typ.Kind())
	}

	fields := make(map[string]bool)

	for field := range typ.Fields() {
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}

		// Parse the tag: "name,omitempty" or just "name"
		parts := strings.Split(tag, ",")
		name := parts[0]
		if name == "" || name == "-" {
			continue
		}

		hasOmitempty := slices.Contains(parts[1:], "omitempty")

		fields[name] = hasOmitempty
	}

	return fields
}

// assertFieldsSync verifies that CUE schema fields and Go struct JSON tags are in sync.
// It checks:
// 1. Every CUE field has a corresponding Go JSON tag
// 2. Every Go JSON tag has a corresponding CUE field
// 3. Optional/omitempty alignment (warning only, not a failure)
func assertFieldsSync(t *testing.T, structName string, cueFields, goFields map[string]bool) {
	t.Helper()

	for field, isOptional := range cueFields {
		hasOmitempty, exists := goFields[field]
		if !exists {
			t.Errorf("[%s] CUE field %q not found in Go struct (missing JSON tag)", structName, field)
			continue
		}
		if isOptional && !hasOmitempty {
			t.Logf("[%s] Note: CUE field %q is optional but Go field lacks omitempty tag", structName, field)
		}
	}

	for field := range goFields {
		if _, exists := cueFields[field]; !exists {
			t.Errorf("[%s] Go JSON tag %q not found in CUE schema (missing CUE field)", structName, field)
		}
	}
}

// getCUESchema compiles the embedded CUE schema and returns the context and compiled value.
func getCUESchema(t *testing.T) (cue.Value, *cue.Context) {
	t.Helper()

	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}

	return schema, ctx
}

// lookupDefinition looks up a CUE definition by path (e.g., "#Config").
func lookupDefinition(t *testing.T, schema cue.Value, defPath string) cue.Value {
	t.Helper()

	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", defPath, def.Err())
	}

	return def
}

// TestConfigSchemaSync verifies the Config Go struct matches the #Config CUE definition.
func TestConfigSchemaSync(t *testing.T) {
	schema, _ := getCUESchema(t)
	cueFields := extractCUEFields(t, lookupDefinition(t, schema, "#Config"))
	goFields := extractGoJSONTags(t, reflect.TypeFor[Config]())

	assertFieldsSync(t, "Config", cueFields, goFields)
}

// TestCatalogConfigSchemaSync verifies the CatalogConfig Go struct matches the #Catalog CUE definition.
func TestCatalogConfigSchemaSync(t *testing.T) {
	schema, _ := getCUESchema(t)
	cueFields := extractCUEFields(t, lookupDefinition(t, schema, "#Catalog"))
	goFields := extractGoJSONTags(t, reflect.TypeFor[CatalogConfig]())

	assertFieldsSync(t, "CatalogConfig", cueFields, goFields)
}

// TestUIConfigSchemaSync verifies the UIConfig Go struct matches the #UI CUE definition.
func TestUIConfigSchemaSync(t *testing.T) {
	schema, _ := getCUESchema(t)
	cueFields := extractCUEFields(t, lookupDefinition(t, schema, "#UI"))
	goFields := extractGoJSONTags(t, reflect.TypeFor[UIConfig]())

	assertFieldsSync(t, "UIConfig", cueFields, goFields)
}

// =============================================================================
// Schema Boundary Tests
// =============================================================================
// These tests verify CUE schema constraints (regexes, numeric bounds) catch
// invalid values at parse time.

// validateCUE compiles CUE test data against the embedded config schema's #Config definition.
// It returns nil if the data is valid, or an error describing why validation failed.
func validateCUE(t *testing.T, cueData string) error {
	t.Helper()

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		t.Fatalf("failed to compile schema: %v", schemaValue.Err())
	}

	userValue := ctx.CompileString(cueData)
	if userValue.Err() != nil {
		return fmt.Errorf("CUE compile error: %w", userValue.Err())
	}

	schemaDef := schemaValue.LookupPath(cue.ParsePath("#Config"))
	if schemaDef.Err() != nil {
		t.Fatalf("failed to lookup #Config: %v", schemaDef.Err())
	}

	unified := schemaDef.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("CUE validation error: %w", err)
	}

	return nil
}

// TestCatalogURLConstraints verifies catalog.url only accepts http(s) URLs.
func TestCatalogURLConstraints(t *testing.T) {
	tests := []struct {
		name    string
		cueData string
		wantErr bool
	}{
		{
			name:    "https URL accepted",
			cueData: `catalog: url: "https://cache.nixos.org"`,
			wantErr: false,
		},
		{
			name:    "http URL accepted",
			cueData: `catalog: url: "http://localhost:8080"`,
			wantErr: false,
		},
		{
			name:    "empty string rejected",
			cueData: `catalog: url: ""`,
			wantErr: true,
		},
		{
			name:    "ftp scheme rejected",
			cueData: `catalog: url: "ftp://cache.example.org"`,
			wantErr: true,
		},
		{
			name:    "bare host rejected",
			cueData: `catalog: url: "cache.nixos.org"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCUE(t, tt.cueData)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

// TestCatalogChannelConstraints verifies catalog.channel rejects empty strings
// and names with characters outside [A-Za-z0-9._-].
func TestCatalogChannelConstraints(t *testing.T) {
	tests := []struct {
		name    string
		cueData string
		wantErr bool
	}{
		{
			name:    "jobset name accepted",
			cueData: `catalog: channel: "trunk-combined"`,
			wantErr: false,
		},
		{
			name:    "versioned channel accepted",
			cueData: `catalog: channel: "release-24.05"`,
			wantErr: false,
		},
		{
			name:    "empty string rejected",
			cueData: `catalog: channel: ""`,
			wantErr: true,
		},
		{
			name:    "spaces rejected",
			cueData: `catalog: channel: "trunk combined"`,
			wantErr: true,
		},
		{
			name:    "slash rejected",
			cueData: `catalog: channel: "nixos/trunk"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCUE(t, tt.cueData)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

// TestTimeoutSecondsConstraints verifies catalog.timeout_seconds enforces the
// (0, 3600] range.
func TestTimeoutSecondsConstraints(t *testing.T) {
	tests := []struct {
		name    string
		cueData string
		wantErr bool
	}{
		{
			name:    "one second accepted",
			cueData: `catalog: timeout_seconds: 1`,
			wantErr: false,
		},
		{
			name:    "one hour accepted",
			cueData: `catalog: timeout_seconds: 3600`,
			wantErr: false,
		},
		{
			name:    "zero rejected",
			cueData: `catalog: timeout_seconds: 0`,
			wantErr: true,
		},
		{
			name:    "negative rejected",
			cueData: `catalog: timeout_seconds: -5`,
			wantErr: true,
		},
		{
			name:    "over one hour rejected",
			cueData: `catalog: timeout_seconds: 3601`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCUE(t, tt.cueData)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

// TestOverlaysConstraints verifies catalog.overlays entries reject whitespace-only paths.
func TestOverlaysConstraints(t *testing.T) {
	tests := []struct {
		name    string
		cueData string
		wantErr bool
	}{
		{
			name:    "single overlay accepted",
			cueData: `catalog: overlays: ["/etc/shed/overlay.yaml"]`,
			wantErr: false,
		},
		{
			name:    "multiple overlays accepted",
			cueData: `catalog: overlays: ["./local.yaml", "/etc/shed/site.yaml"]`,
			wantErr: false,
		},
		{
			name:    "empty entry rejected",
			cueData: `catalog: overlays: [""]`,
			wantErr: true,
		},
		{
			name:    "whitespace-only entry rejected",
			cueData: `catalog: overlays: ["   "]`,
			wantErr: true,
		},
		{
			name:    "empty list accepted",
			cueData: `catalog: overlays: []`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCUE(t, tt.cueData)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}
