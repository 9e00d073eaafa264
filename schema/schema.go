// Package schema validates V4 DDO documents against an embedded JSON schema.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

const mainSchemaFile = "v4.json"

//go:embed v4.json
var schemaFS embed.FS

type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Description)
}

type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator() (*Validator, error) {
	loader := gojsonschema.NewReferenceLoaderFileSystem("file:///"+mainSchemaFile, http.FS(schemaFS))

	s, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ddo schema: %w", err)
	}

	return &Validator{schema: s}, nil
}

var defaultValidator = sync.OnceValues(NewValidator)

// ValidateBytes checks a serialized document. YAML input is accepted and
// converted to JSON first.
func (v *Validator) ValidateBytes(b []byte) ([]Violation, error) {
	document, err := yaml.YAMLToJSON(b)
	if err != nil {
		return nil, fmt.Errorf("converting yaml to json: %w", err)
	}

	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("error validating ddo: %w", err)
	}

	if res.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, Violation{
			Field:       e.Field(),
			Description: e.Description(),
		})
	}

	return violations, nil
}

func (v *Validator) ValidateFile(path string) ([]Violation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file (%s): %w", path, err)
	}
	return v.ValidateBytes(b)
}

// Validate checks a decoded document. Only V4 assets have a schema; other
// documents are rejected with ddo.ErrUnsupportedVersion.
func (v *Validator) Validate(doc ddo.Document) ([]Violation, error) {
	a, ok := doc.(*ddo.Asset)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no schema", ddo.ErrUnsupportedVersion, doc.SchemaVersion())
	}

	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	return v.ValidateBytes(b)
}

// Validate checks doc against the embedded V4 schema and returns the
// violations found. A valid document yields no violations.
func Validate(doc ddo.Document) ([]Violation, error) {
	v, err := defaultValidator()
	if err != nil {
		return nil, err
	}
	return v.Validate(doc)
}
