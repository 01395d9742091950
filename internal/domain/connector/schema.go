package connector

import (
	"fmt"
	"regexp"
)

// ConfigSchema is a JSON-Schema-shaped description of the settings a
// connector requires. It validates configuration maps before persistence.
type ConfigSchema struct {
	// Type is the schema root type, always "object" for config schemas
	Type string `json:"type"`
	// Properties describes each settable field
	Properties map[string]PropertySchema `json:"properties,omitempty"`
	// Required lists the property names that must be present
	Required []string `json:"required,omitempty"`
}

// PropertySchema describes one configuration property
type PropertySchema struct {
	// Type is the JSON type: string, number, integer, boolean, object, array
	Type string `json:"type"`
	// Title is the display label
	Title string `json:"title,omitempty"`
	// Description explains the property
	Description string `json:"description,omitempty"`
	// Default is substituted when the property is absent
	Default any `json:"default,omitempty"`
	// Enum restricts string values to a fixed set
	Enum []string `json:"enum,omitempty"`
	// Format hints at string formats (uri, email, ...)
	Format string `json:"format,omitempty"`
	// Minimum bounds numeric values
	Minimum *float64 `json:"minimum,omitempty"`
	// Maximum bounds numeric values
	Maximum *float64 `json:"maximum,omitempty"`
	// Pattern constrains string values to a regular expression
	Pattern string `json:"pattern,omitempty"`
}

// ObjectSchema creates an object schema with the given properties
func ObjectSchema(properties map[string]PropertySchema, required ...string) *ConfigSchema {
	return &ConfigSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// Validate checks config against the schema. It returns
// ErrConfigSchemaViolation wrapped with the offending property for the first
// violation found.
func (s *ConfigSchema) Validate(config map[string]any) error {
	if s == nil {
		return nil
	}
	for _, name := range s.Required {
		if _, ok := config[name]; !ok {
			return fmt.Errorf("%w: missing required property %q", ErrConfigSchemaViolation, name)
		}
	}
	for name, value := range config {
		prop, declared := s.Properties[name]
		if !declared {
			// Undeclared properties pass through untouched; connectors may
			// stash vendor-specific extras.
			continue
		}
		if err := prop.validate(name, value); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults returns a copy of config with schema defaults filled in for
// absent properties.
func (s *ConfigSchema) ApplyDefaults(config map[string]any) map[string]any {
	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = v
	}
	if s == nil {
		return out
	}
	for name, prop := range s.Properties {
		if _, ok := out[name]; !ok && prop.Default != nil {
			out[name] = prop.Default
		}
	}
	return out
}

func (p PropertySchema) validate(name string, value any) error {
	switch p.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: property %q must be a string", ErrConfigSchemaViolation, name)
		}
		if len(p.Enum) > 0 && !containsString(p.Enum, str) {
			return fmt.Errorf("%w: property %q must be one of %v", ErrConfigSchemaViolation, name, p.Enum)
		}
		if p.Pattern != "" {
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return fmt.Errorf("%w: property %q has an invalid pattern", ErrConfigSchemaViolation, name)
			}
			if !re.MatchString(str) {
				return fmt.Errorf("%w: property %q does not match pattern %q", ErrConfigSchemaViolation, name, p.Pattern)
			}
		}
	case "number", "integer":
		num, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: property %q must be a number", ErrConfigSchemaViolation, name)
		}
		if p.Type == "integer" && num != float64(int64(num)) {
			return fmt.Errorf("%w: property %q must be an integer", ErrConfigSchemaViolation, name)
		}
		if p.Minimum != nil && num < *p.Minimum {
			return fmt.Errorf("%w: property %q is below minimum %v", ErrConfigSchemaViolation, name, *p.Minimum)
		}
		if p.Maximum != nil && num > *p.Maximum {
			return fmt.Errorf("%w: property %q is above maximum %v", ErrConfigSchemaViolation, name, *p.Maximum)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: property %q must be a boolean", ErrConfigSchemaViolation, name)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("%w: property %q must be an object", ErrConfigSchemaViolation, name)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("%w: property %q must be an array", ErrConfigSchemaViolation, name)
		}
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
