package cliutil

import (
	"os"
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

// tokenEnvVars hold credentials whose values are masked wherever they appear.
var tokenEnvVars = []string{"GITHUB_TOKEN", "GH_TOKEN", "CARGO_REGISTRY_TOKEN", "NPM_TOKEN"}

var (
	templateVarPattern = regexp.MustCompile(`\$\{[^}]+\}`)
	secretKeyPattern   = regexp.MustCompile(`(?i)\b(` + secretKeys() + `)\b(\s*[:=]\s*)(["']?)([^"'\s]+)(["']?)`)
	bearerPattern      = regexp.MustCompile(`(?i)\b(bearer)(\s+)[A-Za-z0-9._~+/=-]{8,}`)
	urlUserinfoPattern = regexp.MustCompile(`\b(https?://)[^/\s@]+@`)
)

func secretKeys() string {
	keys := append([]string{"API_KEY", "ACCESS_TOKEN", "CLIENT_SECRET"}, tokenEnvVars...)
	for i, key := range keys {
		keys[i] = regexp.QuoteMeta(key)
	}
	return strings.Join(keys, "|")
}

// RedactSecrets masks credentials in messages printed by the CLI: ${VAR}
// references, KEY=value assignments for token variables, bearer tokens,
// credentials embedded in URLs and the literal values of the token variables
// set in the environment.
func RedactSecrets(message string) string {
	if message == "" {
		return message
	}
	for _, name := range tokenEnvVars {
		// Short values would mask ordinary words.
		if value := os.Getenv(name); len(value) >= 8 {
			message = strings.ReplaceAll(message, value, redactedPlaceholder)
		}
	}
	message = templateVarPattern.ReplaceAllLiteralString(message, "${"+redactedPlaceholder+"}")
	message = secretKeyPattern.ReplaceAllString(message, "$1$2$3"+redactedPlaceholder+"$5")
	message = bearerPattern.ReplaceAllString(message, "$1$2"+redactedPlaceholder)
	return urlUserinfoPattern.ReplaceAllString(message, "$1"+redactedPlaceholder+"@")
}
