package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/padnote/pkg/core"
)

// Codec defines how a structured document is read from and written to bytes.
type Codec interface {
	// Decode parses data into v.
	Decode(data []byte, v any) error
	// Encode serializes v. Output must be deterministic for equal inputs.
	Encode(v any) ([]byte, error)
	// Ext is the conventional file extension, including the dot.
	Ext() string
}

// JSONCodec reads and writes indented JSON documents.
type JSONCodec struct {
	// Strict decodes numbers as json.Number to avoid float conversion.
	Strict bool
}

// NewJSONCodec creates a JSON codec.
func NewJSONCodec(strict bool) *JSONCodec {
	return &JSONCodec{Strict: strict}
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	if c.Strict {
		decoder.UseNumber()
	}
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// Encode sorts map keys (encoding/json does so), which keeps rewrites stable.
func (c *JSONCodec) Encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (c *JSONCodec) Ext() string { return ".json" }

// YAMLCodec reads and writes YAML documents with two-space indentation.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Decode(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	return nil
}

// Encode keeps struct field order and sorts map keys, so the output is stable.
func (c *YAMLCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *YAMLCodec) Ext() string { return ".yaml" }

// ReadDocument loads the document at path into v.
// It returns exists=false and no error when the file is absent. A file that is
// empty or fails to decode yields core.ErrCorruptDocument.
func ReadDocument(path string, codec Codec, v any) (exists bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", core.ErrFileSystem, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, fmt.Errorf("%w: %s is empty", core.ErrCorruptDocument, path)
	}
	if err := codec.Decode(data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", core.ErrCorruptDocument, path, err)
	}
	return true, nil
}

// WriteDocument encodes v and replaces the file at path atomically.
func WriteDocument(path string, codec Codec, v any) error {
	data, err := codec.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := WriteDocumentAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %v", core.ErrFileSystem, err)
	}
	return nil
}
