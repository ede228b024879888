package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownProvider = errors.New("unknown history provider")

// ProviderConfig selects a sink implementation.
type ProviderConfig struct {
	Type   string          `yaml:"type" json:"type"`
	Config json.RawMessage `yaml:"config" json:"config"`
}

// PluginConfig is what a sink factory receives. Config is the raw
// provider block; KeyPrefix namespaces everything the sink writes.
type PluginConfig struct {
	Config    json.RawMessage
	KeyPrefix string
}

type PluginFactory func(config PluginConfig) (Sink, error)

var (
	sinksMu sync.RWMutex
	sinks   = map[string]PluginFactory{}
)

// RegisterProvider makes a sink available under name, replacing any
// earlier registration.
func RegisterProvider(name string, factory PluginFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || factory == nil {
		panic("history: RegisterProvider needs a name and a factory")
	}
	sinksMu.Lock()
	sinks[name] = factory
	sinksMu.Unlock()
}

// New builds the sink pc.Type names, handing it pc.Config.
func New(pc ProviderConfig, plugin PluginConfig) (Sink, error) {
	name := strings.ToLower(strings.TrimSpace(pc.Type))
	sinksMu.RLock()
	factory, ok := sinks[name]
	sinksMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownProvider, pc.Type, strings.Join(ListProviders(), ", "))
	}
	plugin.Config = pc.Config
	return factory(plugin)
}

func ListProviders() []string {
	sinksMu.RLock()
	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sinksMu.RUnlock()
	sort.Strings(names)
	return names
}
