package yamlfile

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// schemaURL names the embedded schema resource inside the compiler.
const schemaURL = "board.schema.json"

//go:embed board.schema.json
var boardSchemaJSON string

// boardSchema is compiled once from the embedded document.
var boardSchema = mustCompileSchema()

// mustCompileSchema compiles the embedded board schema.
func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(boardSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add board schema: %v", err))
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("compile board schema: %v", err))
	}
	return schema
}

// SchemaViolation is one failed schema constraint.
type SchemaViolation struct {
	Path    string
	Message string
}

// Error implements error.
func (v SchemaViolation) Error() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// validateNode checks a parsed YAML tree against the board schema.
func validateNode(root *yaml.Node) []SchemaViolation {
	value, err := nodeValue(root)
	if err != nil {
		return []SchemaViolation{{Message: err.Error()}}
	}
	err = boardSchema.Validate(value)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []SchemaViolation{{Message: err.Error()}}
	}
	out := []SchemaViolation{}
	collectViolations(&out, ve)
	return out
}

// collectViolations flattens nested validation causes into leaf violations.
func collectViolations(out *[]SchemaViolation, ve *jsonschema.ValidationError) {
	if ve == nil {
		return
	}
	if len(ve.Causes) == 0 {
		*out = append(*out, SchemaViolation{
			Path:    pointerToPath(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectViolations(out, cause)
	}
}

// pointerToPath turns a JSON pointer into a dotted document path.
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

// nodeValue converts a YAML tree into the JSON-shaped values the validator expects.
// Mapping keys always become strings so numeric-looking note ids survive.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return b, nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return f, nil
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}
