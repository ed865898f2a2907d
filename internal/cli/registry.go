// Package cli provides command-line interface support for one-shot mode
package cli

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oyin-bo/autothread/internal/mcp"
)

// ExecuteFunc runs a command with its bound arguments and returns text output
type ExecuteFunc func(ctx context.Context, args interface{}) (string, error)

// ToolDefinition defines a command with its metadata and execution logic
type ToolDefinition struct {
	Name        string
	Description string
	ArgsType    interface{}
	Execute     ExecuteFunc
}

// Registry manages all available commands
type Registry struct {
	tools map[string]*ToolDefinition
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*ToolDefinition),
	}
}

// RegisterTool adds a command to the registry
func (r *Registry) RegisterTool(def *ToolDefinition) {
	r.tools[def.Name] = def
}

// GetTool retrieves a command by name
func (r *Registry) GetTool(name string) (*ToolDefinition, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// Definitions returns every registered command sorted by name
func (r *Registry) Definitions() []*ToolDefinition {
	defs := make([]*ToolDefinition, 0, len(r.tools))
	for _, def := range r.tools {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// InputSchema generates the MCP JSON Schema of the args type
func (td *ToolDefinition) InputSchema() mcp.InputSchema {
	return mcp.SchemaFor(td.ArgsType)
}

// CreateCobraCommand generates a cobra command from a tool definition
func CreateCobraCommand(td *ToolDefinition, execute func(ctx context.Context, args interface{}) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   td.Name,
		Short: td.Description,
		Long:  td.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			argsInstance := createArgsInstance(td.ArgsType)

			if err := bindFlagsToStruct(cmd, argsInstance); err != nil {
				return err
			}

			return execute(cmd.Context(), argsInstance)
		},
	}

	addFlagsFromStruct(cmd, td.ArgsType)

	return cmd
}

// createArgsInstance creates a new instance of the args type
func createArgsInstance(argsType interface{}) interface{} {
	t := reflect.TypeOf(argsType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}

// addFlagsFromStruct adds cobra flags based on struct tags
func addFlagsFromStruct(cmd *cobra.Command, argsType interface{}) {
	t := reflect.TypeOf(argsType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		shortFlag := field.Tag.Get("short")
		longFlag := field.Tag.Get("long")
		description := getDescription(field)

		if longFlag == "" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.String:
			cmd.Flags().StringP(longFlag, shortFlag, "", description)
		case reflect.Int:
			cmd.Flags().IntP(longFlag, shortFlag, 0, description)
		case reflect.Bool:
			cmd.Flags().BoolP(longFlag, shortFlag, false, description)
		default:
			continue
		}

		if hasRequiredTag(field) {
			_ = cmd.MarkFlagRequired(longFlag)
		}
	}
}

// bindFlagsToStruct binds cobra flag values to struct fields
func bindFlagsToStruct(cmd *cobra.Command, argsInstance interface{}) error {
	v := reflect.ValueOf(argsInstance)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		longFlag := field.Tag.Get("long")

		if longFlag == "" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.String:
			val, err := cmd.Flags().GetString(longFlag)
			if err != nil {
				return err
			}
			v.Field(i).SetString(val)
		case reflect.Int:
			val, err := cmd.Flags().GetInt(longFlag)
			if err != nil {
				return err
			}
			v.Field(i).SetInt(int64(val))
		case reflect.Bool:
			val, err := cmd.Flags().GetBool(longFlag)
			if err != nil {
				return err
			}
			v.Field(i).SetBool(val)
		}
	}

	return nil
}

// getDescription extracts description from jsonschema tag
func getDescription(field reflect.StructField) string {
	return parseTag(field.Tag.Get("jsonschema"))["description"]
}

// hasRequiredTag checks if field is required
func hasRequiredTag(field reflect.StructField) bool {
	_, required := parseTag(field.Tag.Get("jsonschema"))["required"]
	return required
}

// parseTag parses a jsonschema tag into key-value pairs.
// Format: "required,description=Some description"
func parseTag(tag string) map[string]string {
	result := make(map[string]string)
	if tag == "" {
		return result
	}

	for _, part := range strings.Split(tag, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			result[key] = "true"
			continue
		}
		result[key] = value
	}

	return result
}

// ConvertToMap converts a struct to a map for MCP tool calls
func ConvertToMap(args interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result, nil
}
