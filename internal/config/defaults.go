package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultListenAddr    = "localhost:11111"
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultWriteTimeout  = 5 * time.Second
	DefaultHistoryLimit  = 20
	DefaultQueueCapacity = 64
	DefaultAppendTimeout = 5 * time.Second
)

func (c *ServerConfig) applyDefaults() {
	if c.Listen.Addr == "" {
		c.Listen.Addr = DefaultListenAddr
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Session defaults
	if c.Session.WriteTimeout == 0 {
		c.Session.WriteTimeout = DefaultWriteTimeout
	}
	if c.Session.HistoryLimit == 0 {
		c.Session.HistoryLimit = DefaultHistoryLimit
	}

	// Archiver defaults
	if c.Archiver.QueueCapacity == 0 {
		c.Archiver.QueueCapacity = DefaultQueueCapacity
	}
	if c.Archiver.AppendTimeout == 0 {
		c.Archiver.AppendTimeout = DefaultAppendTimeout
	}
}
