// version.go - Gateway & API version info
package server

// GatewayVersion returns the current gateway software version.
func GatewayVersion() string {
	// TODO: Return version from build flags or config
	return "v0.0.1-dev"
}

// APIVersion returns the current API version.
func APIVersion() string {
	return "v1"
}
