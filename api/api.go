// Package api holds the published API description.
package api

import _ "embed"

// SwaggerJSON is the OpenAPI 2.0 document for the REST API.
//
//go:embed swagger/user.swagger.json
var SwaggerJSON []byte
