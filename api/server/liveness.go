// liveness.go - Liveness probe logic for the medvault gateway
package server

// GatewayLiveness returns true while the process is serving requests.
func (s *Server) GatewayLiveness() bool {
	return true
}
