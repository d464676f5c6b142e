package swagger

import _ "embed"

// OpenAPI contains the embedded OpenAPI document of the leaderboard API.
//
//go:embed openapi.yaml
var OpenAPI []byte
