// Package callconfig models the per-service voice session configuration
// edited in the console and resolves it into typed settings.
//
// A SessionConfig is an ordered list of ServiceConfig entries, one per
// service kind (tts, llm, stt, vad). Each entry carries named options whose
// values are tagged variants. Unknown services and unknown options are
// preserved so configs written by newer clients survive a round trip.
package callconfig

import (
	"errors"
	"fmt"
	"slices"
)

// Service discriminates ServiceConfig entries.
type Service string

// Known services.
const (
	ServiceTTS Service = "tts"
	ServiceLLM Service = "llm"
	ServiceSTT Service = "stt"
	ServiceVAD Service = "vad"
)

// KnownServices lists the services ToFlat understands, in rendering order.
var KnownServices = []Service{ServiceVAD, ServiceTTS, ServiceLLM, ServiceSTT}

// Known reports whether s is one of the four modelled services.
func (s Service) Known() bool {
	return slices.Contains(KnownServices, s)
}

// Sentinel errors for validation.
var (
	ErrEmptyService     = errors.New("callconfig: service is required")
	ErrDuplicateService = errors.New("callconfig: duplicate service")
	ErrEmptyOptionName  = errors.New("callconfig: option name is required")
	ErrDuplicateOption  = errors.New("callconfig: duplicate option")
	ErrInvalidValue     = errors.New("callconfig: invalid option value")
)

// Option is one named setting of a service.
type Option struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// ServiceConfig holds the options of a single service.
type ServiceConfig struct {
	Service Service  `json:"service"`
	Options []Option `json:"options"`
}

// NewServiceConfig builds a ServiceConfig from options in order.
func NewServiceConfig(service Service, opts ...Option) ServiceConfig {
	return ServiceConfig{Service: service, Options: opts}
}

// Opt is shorthand for building an Option.
func Opt(name string, value Value) Option {
	return Option{Name: name, Value: value}
}

// Lookup returns the value of the named option and whether it is present.
func (c ServiceConfig) Lookup(name string) (Value, bool) {
	for _, o := range c.Options {
		if o.Name == name {
			return o.Value, true
		}
	}
	return Value{}, false
}

// LookupString returns the named option if it is present and a string.
func (c ServiceConfig) LookupString(name string) (string, bool) {
	v, ok := c.Lookup(name)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Index returns the options keyed by name. Later duplicates win.
func (c ServiceConfig) Index() map[string]Value {
	idx := make(map[string]Value, len(c.Options))
	for _, o := range c.Options {
		idx[o.Name] = o.Value
	}
	return idx
}

// Clone returns a deep copy.
func (c ServiceConfig) Clone() ServiceConfig {
	out := ServiceConfig{Service: c.Service}
	if c.Options != nil {
		out.Options = make([]Option, len(c.Options))
		for i, o := range c.Options {
			out.Options[i] = Option{Name: o.Name, Value: o.Value.clone()}
		}
	}
	return out
}

// Equal reports whether both entries have the same service and the same
// options in the same order.
func (c ServiceConfig) Equal(o ServiceConfig) bool {
	if c.Service != o.Service || len(c.Options) != len(o.Options) {
		return false
	}
	for i := range c.Options {
		if c.Options[i].Name != o.Options[i].Name || !c.Options[i].Value.Equal(o.Options[i].Value) {
			return false
		}
	}
	return true
}

// Validate checks the service name, option name uniqueness and that
// numeric values are finite.
func (c ServiceConfig) Validate() error {
	if c.Service == "" {
		return ErrEmptyService
	}
	seen := make(map[string]struct{}, len(c.Options))
	for _, o := range c.Options {
		if o.Name == "" {
			return fmt.Errorf("%w (service %s)", ErrEmptyOptionName, c.Service)
		}
		if _, dup := seen[o.Name]; dup {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateOption, c.Service, o.Name)
		}
		if !o.Value.finite() {
			return fmt.Errorf("%w: %s.%s is not a finite number", ErrInvalidValue, c.Service, o.Name)
		}
		seen[o.Name] = struct{}{}
	}
	return nil
}

// SessionConfig is the full configuration of one voice session.
type SessionConfig []ServiceConfig

// Find returns the first entry for service.
func (c SessionConfig) Find(service Service) (ServiceConfig, bool) {
	if i := c.indexOf(service); i >= 0 {
		return c[i], true
	}
	return ServiceConfig{}, false
}

// Clone returns a deep copy. A nil config stays nil.
func (c SessionConfig) Clone() SessionConfig {
	if c == nil {
		return nil
	}
	out := make(SessionConfig, len(c))
	for i, sc := range c {
		out[i] = sc.Clone()
	}
	return out
}

// Equal reports entry-wise equality.
func (c SessionConfig) Equal(o SessionConfig) bool {
	return slices.EqualFunc(c, o, ServiceConfig.Equal)
}

// Validate checks every entry and that each service appears at most once.
func (c SessionConfig) Validate() error {
	seen := make(map[Service]struct{}, len(c))
	for _, sc := range c {
		if err := sc.Validate(); err != nil {
			return err
		}
		if _, dup := seen[sc.Service]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateService, sc.Service)
		}
		seen[sc.Service] = struct{}{}
	}
	return nil
}

func (c SessionConfig) indexOf(service Service) int {
	return slices.IndexFunc(c, func(sc ServiceConfig) bool { return sc.Service == service })
}

// ApplyUpdate returns a copy of current where every entry whose service
// matches an update is replaced wholesale by that update. Options are not
// merged: an llm update must carry every llm option the caller wants kept.
//
// Updates for services absent from current are dropped.
// current is never mutated.
func ApplyUpdate(current SessionConfig, updates []ServiceConfig) SessionConfig {
	out := current.Clone()
	for _, u := range updates {
		if i := out.indexOf(u.Service); i >= 0 {
			out[i] = u.Clone()
		}
	}
	return out
}
