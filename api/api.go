package api

import _ "embed"

// OpenAPISpec is served by the router at /swagger/openapi.json.
//
//go:embed openapi.json
var OpenAPISpec []byte
