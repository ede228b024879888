package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownProvider is returned for auth.provider values nothing registered.
var ErrUnknownProvider = errors.New("unknown auth provider")

// ProviderConfig names a provider and carries its raw config block.
type ProviderConfig struct {
	Type   string          `yaml:"type" json:"type"`
	Config json.RawMessage `yaml:"config" json:"config"`
}

type ValidatorFactory func(config json.RawMessage) (Validator, error)

var (
	providersMu sync.RWMutex
	providers   = map[string]ValidatorFactory{}
)

// RegisterProvider makes a validator available under name. Provider
// packages call it from init; a later registration replaces an earlier one.
func RegisterProvider(name string, factory ValidatorFactory) {
	name = normalizeProvider(name)
	if name == "" || factory == nil {
		panic("auth: RegisterProvider needs a name and a factory")
	}
	providersMu.Lock()
	providers[name] = factory
	providersMu.Unlock()
}

// NewValidator builds the validator for pc.Type. Provider names are case
// insensitive.
func NewValidator(pc ProviderConfig) (Validator, error) {
	name := normalizeProvider(pc.Type)
	providersMu.RLock()
	factory, ok := providers[name]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownProvider, pc.Type, strings.Join(ListProviders(), ", "))
	}
	v, err := factory(pc.Config)
	if err != nil {
		return nil, fmt.Errorf("auth provider %s: %w", name, err)
	}
	return v, nil
}

func ListProviders() []string {
	providersMu.RLock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	providersMu.RUnlock()
	sort.Strings(names)
	return names
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
