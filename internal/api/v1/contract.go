// Package apiv1 loads the published OpenAPI document of /api/v1 and checks
// incoming requests against it.
package apiv1

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// BasePath is where the document's paths are mounted.
const BasePath = "/api/v1"

// LoadContract reads and validates the OpenAPI document at path.
func LoadContract(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}
	return doc, nil
}
