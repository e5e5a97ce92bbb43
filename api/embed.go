// Package api embeds the OpenAPI description served at /api/docs.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3.0 document for the channel browser HTTP API.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
