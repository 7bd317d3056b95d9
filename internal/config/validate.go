package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServerConfig) Validate() error {
	if c.Listen.Addr == "" {
		return errors.New("listen.addr is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Session.WriteTimeout < 0 {
		return errors.New("session.write_timeout must not be negative")
	}
	if c.Session.HistoryLimit < 1 {
		return errors.New("session.history_limit must be >= 1")
	}

	if c.Archiver.QueueCapacity < 1 {
		return errors.New("archiver.queue_capacity must be >= 1")
	}
	if c.Archiver.AppendTimeout <= 0 {
		return errors.New("archiver.append_timeout must be > 0")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, db.Port)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
