// Package config loads and validates a server's static cluster manifest.
//
// The cluster list, consistency mode and quorum parameters are external,
// boot-time configuration: every node in a cluster must be started from
// an identical manifest, and a malformed quorum configuration is a fatal
// startup error, not a runtime one.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model names a consistency regime.
type Model string

const (
	Sequential     Model = "sequential"
	ReadYourWrites Model = "read_your_writes"
	Quorum         Model = "quorum"
)

// QuorumConfig holds the Quorum-mode replica-count parameters.
type QuorumConfig struct {
	N  int `yaml:"n"`
	NR int `yaml:"nr"`
	NW int `yaml:"nw"`
}

// Config is a single server's static, boot-time configuration. Every field
// except DebugPort and DisableLatencyJitter must be identical in meaning
// across all nodes of one cluster (the listener addresses obviously
// differ node to node, but the Servers list itself must agree).
type Config struct {
	Host                 string       `yaml:"host"`
	Port                 int          `yaml:"port"`
	DebugPort            int          `yaml:"debug_port"`
	Coordinator          bool         `yaml:"coordinator"`
	CoordinatorAddr      string       `yaml:"coordinator_addr"`
	Servers              []string     `yaml:"servers"`
	Consistency          Model        `yaml:"consistency"`
	QuorumParams         QuorumConfig `yaml:"quorum"`
	DisableLatencyJitter bool         `yaml:"disable_latency_jitter"`
}

// Addr returns this server's own host:port, as it would appear in Servers.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads and validates a YAML manifest at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate enforces the quorum constraints: NR + NW > N and NW > N/2. It
// is a no-op outside Quorum mode.
func (c Config) Validate() error {
	switch c.Consistency {
	case Sequential, ReadYourWrites, Quorum:
	default:
		return fmt.Errorf("config: unknown consistency model %q", c.Consistency)
	}
	if c.Consistency != Quorum {
		return nil
	}
	q := c.QuorumParams
	if q.N <= 0 {
		return fmt.Errorf("config: quorum.n must be positive, got %d", q.N)
	}
	if q.NR+q.NW <= q.N {
		return fmt.Errorf("config: invalid quorum sizes: NR(%d) + NW(%d) must exceed N(%d)", q.NR, q.NW, q.N)
	}
	if 2*q.NW <= q.N {
		return fmt.Errorf("config: invalid quorum sizes: NW(%d) must exceed N(%d)/2", q.NW, q.N)
	}
	return nil
}
