package intermediate

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// IntermediateFormat is the dump of one compiled template
type IntermediateFormat struct {
	Source       SourceInfo    `json:"source"`
	Tree         Node          `json:"tree"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

// SourceInfo represents source file information
type SourceInfo struct {
	File    string `json:"file"`
	Content string `json:"content,omitempty"`
}

// NewFormat creates a new intermediate format instance
func NewFormat() *IntermediateFormat {
	return &IntermediateFormat{}
}

// SetSource sets the source information
func (f *IntermediateFormat) SetSource(file, content string) {
	f.Source = SourceInfo{
		File:    file,
		Content: content,
	}
}

// SetTree sets the compiled tree
func (f *IntermediateFormat) SetTree(tree Node) {
	f.Tree = tree
}

// SetInstructions sets the flattened instructions
func (f *IntermediateFormat) SetInstructions(instructions []Instruction) {
	f.Instructions = instructions
}

// WriteJSON writes the intermediate format as JSON to the provided writer
func (f *IntermediateFormat) WriteJSON(w io.Writer, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(f)
}

// WriteText writes the tree as an s-expression followed by the instruction
// listing, one instruction per line
func (f *IntermediateFormat) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# %s\n%s\n%s", f.Source.File, Sexp(f.Tree), Dump(f.Instructions))
	return err
}

// WriteYAML writes the intermediate format as YAML, keeping the JSON key order
func (f *IntermediateFormat) WriteYAML(w io.Writer) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal intermediate format: %w", err)
	}

	var ordered any
	if err := yaml.UnmarshalWithOptions(data, &ordered, yaml.UseOrderedMap()); err != nil {
		return fmt.Errorf("failed to convert intermediate format to YAML: %w", err)
	}

	out, err := yaml.Marshal(ordered)
	if err != nil {
		return fmt.Errorf("failed to convert intermediate format to YAML: %w", err)
	}

	_, err = w.Write(out)

	return err
}
