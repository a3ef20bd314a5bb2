// readiness.go - Readiness probe logic for the medvault gateway
package server

// GatewayReadiness returns true if the resolver is wired and the local
// store is accessible.
func (s *Server) GatewayReadiness() bool {
	metrics := s.GetGatewayMetrics()
	return s.resolver != nil && metrics.StoreReachable
}
