// Package schema embeds the JSON schema for unc.yaml.
package schema

import _ "embed"

// SettingsV1Name is the resource name the schema is compiled under.
const SettingsV1Name = "unc.v1.json"

//go:embed unc.v1.json
var SettingsV1Schema []byte
