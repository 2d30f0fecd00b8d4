package connector

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/go-mysql-org/go-mysql/client"
	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/config"
)

// Connector provides MySQL connection establishment with SSL support.
type Connector struct {
	cfg    *config.MySQLConfig
	logger *zap.Logger
}

// New creates a new MySQL connector with the given configuration and logger.
func New(cfg *config.MySQLConfig, logger *zap.Logger) *Connector {
	return &Connector{
		cfg:    cfg,
		logger: logger,
	}
}

// Connect establishes a MySQL connection to the specified database.
func (c *Connector) Connect(database string) (*client.Conn, error) {
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	conn, err := client.Connect(addr, c.cfg.Username, c.cfg.Password, database)
	if err != nil {
		return nil, err
	}

	if c.cfg.SSLMode == config.SSLModeDisabled {
		return conn, nil
	}

	tlsConfig, err := c.buildTLSConfig()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to build TLS config: %w", err)
	}
	if tlsConfig != nil {
		conn.SetTLSConfig(tlsConfig)
		c.logger.Debug("SSL/TLS enabled",
			zap.String("mode", c.cfg.SSLMode),
			zap.String("host", c.cfg.Host))
	}

	return conn, nil
}

// buildTLSConfig creates a TLS configuration from the MySQL SSL settings.
func (c *Connector) buildTLSConfig() (*tls.Config, error) {
	if c.cfg.SSLMode == config.SSLModeDisabled {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	switch c.cfg.SSLMode {
	case config.SSLModePreferred, config.SSLModeRequired:
		// Encrypted transport without server certificate verification
		tlsConfig.InsecureSkipVerify = true
	case config.SSLModeVerifyCA:
		tlsConfig.InsecureSkipVerify = false
	case config.SSLModeVerifyIdentity:
		tlsConfig.InsecureSkipVerify = false
		tlsConfig.ServerName = c.cfg.Host
	default:
		return nil, fmt.Errorf("unsupported SSL mode: %s", c.cfg.SSLMode)
	}

	if c.cfg.SSLCert != "" && c.cfg.SSLKey != "" {
		cert, err := tls.LoadX509KeyPair(c.cfg.SSLCert, c.cfg.SSLKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if c.cfg.SSLCa != "" {
		caCert, err := os.ReadFile(c.cfg.SSLCa)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}
