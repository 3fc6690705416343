package callconfig

// ServicesMapping names the selected provider per service.
type ServicesMapping struct {
	LLM string `json:"llm"`
	TTS string `json:"tts"`
	STT string `json:"stt"`
}

// CallSettings is the document persisted per client.
type CallSettings struct {
	Config   SessionConfig   `json:"config"`
	Services ServicesMapping `json:"services"`
}

// Clone returns a deep copy.
func (s *CallSettings) Clone() *CallSettings {
	if s == nil {
		return nil
	}
	return &CallSettings{Config: s.Config.Clone(), Services: s.Services}
}

// Validate checks the embedded config.
func (s *CallSettings) Validate() error {
	return s.Config.Validate()
}

// Apply returns new settings with updates applied through ApplyUpdate.
// The services mapping follows the provider option of every tts, llm and
// stt update, whether or not the config held a matching entry.
func (s *CallSettings) Apply(updates []ServiceConfig) *CallSettings {
	out := &CallSettings{Services: s.Services}
	out.Config = ApplyUpdate(s.Config, updates)
	for _, u := range updates {
		provider, ok := u.LookupString(OptProvider)
		if !ok {
			continue
		}
		switch u.Service {
		case ServiceTTS:
			out.Services.TTS = provider
		case ServiceLLM:
			out.Services.LLM = provider
		case ServiceSTT:
			out.Services.STT = provider
		}
	}
	return out
}
