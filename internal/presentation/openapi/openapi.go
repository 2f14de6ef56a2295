package openapi

import _ "embed"

// Spec REST APIのOpenAPI定義
//
//go:embed openapi.yaml
var Spec []byte
