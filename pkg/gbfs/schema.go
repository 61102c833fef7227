package gbfs

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "https://schemas.gbfs-client.local/"

//go:embed schemas/*.json
var schemaFS embed.FS

type schemaFunc func() (*jsonschema.Schema, error)

var (
	discoverySchema = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema("discovery.json") })
	stationsSchema  = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema("stations.json") })
	feedSchema      = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema("feed.json") })
)

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
	}

	url := schemaBaseURL + name
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	return c.Compile(url)
}

// validateShape checks body against schema. It only guards the envelope the
// decoders rely on; field-level GBFS conformance is out of scope.
func validateShape(schema schemaFunc, body []byte) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("unexpected document shape: %w", err)
	}
	return nil
}
