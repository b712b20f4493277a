// Package api embeds the OpenAPI description of the payment portal.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
