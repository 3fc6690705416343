package callconfig

// DefaultCustomer is used when the llm entry carries no customer option.
const DefaultCustomer = "anker"

// Option names read by ToFlat.
const (
	OptProvider     = "provider"
	OptModel        = "model"
	OptVoice        = "voice"
	OptLanguage     = "language"
	OptSystemPrompt = "system_prompt"
	OptCustomer     = "customer"
	OptParams       = "params"
)

// VAD record keys.
const (
	VADStartSecs  = "start_secs"
	VADStopSecs   = "stop_secs"
	VADConfidence = "confidence"
	VADMinVolume  = "min_volume"
)

// FlatSettings is the typed view of a SessionConfig. A nil field means the
// option was absent (or held the wrong kind of value).
type FlatSettings struct {
	LLM LLMSettings `json:"llm"`
	TTS TTSSettings `json:"tts"`
	STT STTSettings `json:"stt"`
	VAD VADSettings `json:"vad"`
}

// LLMSettings is the llm sub-record.
type LLMSettings struct {
	Provider     *string `json:"provider,omitempty"`
	Model        *string `json:"model,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
	Customer     *string `json:"customer,omitempty"`
}

// TTSSettings is the tts sub-record.
type TTSSettings struct {
	Language *string `json:"language,omitempty"`
	Provider *string `json:"provider,omitempty"`
	Voice    *string `json:"voice,omitempty"`
	Model    *string `json:"model,omitempty"`
}

// STTSettings is the stt sub-record.
type STTSettings struct {
	Provider *string `json:"provider,omitempty"`
	Language *string `json:"language,omitempty"`
	Model    *string `json:"model,omitempty"`
}

// VADSettings is the vad sub-record.
type VADSettings struct {
	Params *VADParams `json:"params,omitempty"`
}

// VADParams holds voice activity detection thresholds.
type VADParams struct {
	StartSecs  *float64 `json:"start_secs,omitempty"`
	StopSecs   *float64 `json:"stop_secs,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	MinVolume  *float64 `json:"min_volume,omitempty"`
}

// ToFlat converts a SessionConfig into FlatSettings. It is pure and never
// fails: unknown services and options are ignored, missing ones stay nil.
// When a service appears more than once the last entry wins.
func ToFlat(config SessionConfig) FlatSettings {
	var flat FlatSettings
	for _, sc := range config {
		idx := sc.Index()
		switch sc.Service {
		case ServiceLLM:
			flat.LLM = LLMSettings{
				Provider:     stringField(idx, OptProvider),
				Model:        stringField(idx, OptModel),
				SystemPrompt: stringField(idx, OptSystemPrompt),
				Customer:     stringField(idx, OptCustomer),
			}
		case ServiceTTS:
			flat.TTS = TTSSettings{
				Language: stringField(idx, OptLanguage),
				Provider: stringField(idx, OptProvider),
				Voice:    stringField(idx, OptVoice),
				Model:    stringField(idx, OptModel),
			}
		case ServiceSTT:
			flat.STT = STTSettings{
				Provider: stringField(idx, OptProvider),
				Language: stringField(idx, OptLanguage),
				Model:    stringField(idx, OptModel),
			}
		case ServiceVAD:
			flat.VAD = VADSettings{Params: vadField(idx, OptParams)}
		}
	}
	return flat
}

// Resolve is ToFlat plus the documented llm customer default. It is the
// view handed to the bot runtime.
func Resolve(config SessionConfig) FlatSettings {
	flat := ToFlat(config)
	if flat.LLM.Customer == nil {
		flat.LLM.Customer = ptr(DefaultCustomer)
	}
	return flat
}

// Values returns the VAD params as a plain record, skipping absent keys.
func (p *VADParams) Values() map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, 4)
	set := func(k string, v *float64) {
		if v != nil {
			out[k] = *v
		}
	}
	set(VADStartSecs, p.StartSecs)
	set(VADStopSecs, p.StopSecs)
	set(VADConfidence, p.Confidence)
	set(VADMinVolume, p.MinVolume)
	return out
}

func stringField(idx map[string]Value, name string) *string {
	v, ok := idx[name]
	if !ok {
		return nil
	}
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	return &s
}

func vadField(idx map[string]Value, name string) *VADParams {
	v, ok := idx[name]
	if !ok {
		return nil
	}
	rec, ok := v.AsRecord()
	if !ok {
		return nil
	}
	num := func(k string) *float64 {
		if n, ok := rec[k]; ok {
			return &n
		}
		return nil
	}
	return &VADParams{
		StartSecs:  num(VADStartSecs),
		StopSecs:   num(VADStopSecs),
		Confidence: num(VADConfidence),
		MinVolume:  num(VADMinVolume),
	}
}

func ptr[T any](v T) *T { return &v }
