package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

const serviceType = "_hestia._tcp"

// Service advertises the HTTP API over mDNS so local dashboards find
// the simulation without configuration.
type Service struct {
	server *zeroconf.Server
	logger *logrus.Logger
}

// Advertise registers the mDNS service on all interfaces.
func Advertise(instanceName string, port int, logger *logrus.Logger) (*Service, error) {
	server, err := zeroconf.Register(instanceName, serviceType, "local.", port, []string{"api=/api/v1", "ws=/ws"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"instance": instanceName,
		"service":  serviceType,
		"port":     port,
	}).Info("mDNS service advertised")

	return &Service{server: server, logger: logger}, nil
}

// Shutdown stops the mDNS advertisement.
func (s *Service) Shutdown() {
	s.server.Shutdown()
	s.logger.Info("mDNS service stopped")
}
