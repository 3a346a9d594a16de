package script

import (
	"strings"
	"sync"

	"steward/internal/arguments"
)

// ConfigCollector recovers STEWARD_CONFIG_<KEY>=<value> lines a config
// script prints to stdout. Scripts have no other channel back to the caller,
// so the config-panel feature uses stdout as a deliberate text IPC.
//
// Line is safe to pass as ScriptRequest.OnStdout.
type ConfigCollector struct {
	mu     sync.Mutex
	values map[string]string
}

// NewConfigCollector creates an empty collector.
func NewConfigCollector() *ConfigCollector {
	return &ConfigCollector{values: make(map[string]string)}
}

// Line inspects one stdout line and records it when it carries a config
// value. Anything else is ignored.
func (c *ConfigCollector) Line(line string) {
	if !strings.HasPrefix(line, arguments.ConfigEnvPrefix) {
		return
	}
	key, value, ok := strings.Cut(strings.TrimPrefix(line, arguments.ConfigEnvPrefix), "=")
	if !ok || key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Values returns a copy of everything collected so far, keyed by the
// variable name with the prefix stripped.
func (c *ConfigCollector) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
