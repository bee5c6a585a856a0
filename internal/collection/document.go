package collection

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DocumentKey is the storage key the collection list lives under.
const DocumentKey = "tabCollections"

// Document is the persisted shape: {"tabCollections": [...]}.
type Document struct {
	TabCollections []Collection `json:"tabCollections"`
}

//go:embed document.schema.json
var documentSchema []byte

const schemaURL = "https://tabshelf.local/document.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(documentSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse document schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add document schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ValidateDocument checks raw JSON against the document schema.
func ValidateDocument(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

// DecodeDocument validates and decodes a stored document.
// Empty input and a missing tabCollections key both yield an empty list.
func DecodeDocument(data []byte) ([]Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Collection{}, nil
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.TabCollections == nil {
		return []Collection{}, nil
	}
	for i := range doc.TabCollections {
		if doc.TabCollections[i].Tabs == nil {
			doc.TabCollections[i].Tabs = []TabEntry{}
		}
	}
	return doc.TabCollections, nil
}

// EncodeDocument serializes the ordered list. Nil slices encode as [].
func EncodeDocument(list []Collection) ([]byte, error) {
	out := make([]Collection, len(list))
	for i, c := range list {
		out[i] = c
		if out[i].Tabs == nil {
			out[i].Tabs = []TabEntry{}
		}
	}
	return json.Marshal(Document{TabCollections: out})
}
