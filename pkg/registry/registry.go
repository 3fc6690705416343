// Package registry holds the static provider reference data used to seed
// new call settings and to check provider/model pairs.
package registry

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

// ErrUnknownModel is returned when a provider does not offer a model.
var ErrUnknownModel = errors.New("registry: model not offered by provider")

// Language describes the defaults applied when a language is selected.
type Language struct {
	Label        string `json:"label" yaml:"label"`
	Value        string `json:"value" yaml:"value"`
	TTSModel     string `json:"tts_model" yaml:"tts_model"`
	DefaultVoice string `json:"default_voice" yaml:"default_voice"`
	LLMProvider  string `json:"llm_provider" yaml:"llm_provider"`
	LLMModel     string `json:"llm_model" yaml:"llm_model"`
	STTProvider  string `json:"stt_provider" yaml:"stt_provider"`
	STTModel     string `json:"stt_model" yaml:"stt_model"`
}

// Model is one selectable model or voice.
type Model struct {
	Label    string `json:"label" yaml:"label"`
	Value    string `json:"value" yaml:"value"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// ProviderChoice groups the models offered by one provider.
type ProviderChoice struct {
	Label  string  `json:"label" yaml:"label"`
	Value  string  `json:"value" yaml:"value"`
	Models []Model `json:"models" yaml:"models"`
}

// VADDefaults are the default voice activity detection thresholds.
type VADDefaults struct {
	StartSecs  float64 `json:"start_secs" yaml:"start_secs"`
	StopSecs   float64 `json:"stop_secs" yaml:"stop_secs"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	MinVolume  float64 `json:"min_volume" yaml:"min_volume"`
}

// Registry is the full reference data set.
type Registry struct {
	Languages       []Language                 `json:"languages" yaml:"languages"`
	LLMModelChoices []ProviderChoice           `json:"llm_model_choices" yaml:"llm_model_choices"`
	TTSModelChoices []ProviderChoice           `json:"tts_model_choices" yaml:"tts_model_choices"`
	BotPrompt       map[string]string          `json:"bot_prompt" yaml:"bot_prompt"`
	DefaultServices callconfig.ServicesMapping `json:"default_services" yaml:"default_services"`
	DefaultLLM      DefaultLLM                 `json:"default_llm" yaml:"default_llm"`
	VAD             VADDefaults                `json:"vad" yaml:"vad"`
}

// DefaultLLM is the llm entry seeded into new settings.
type DefaultLLM struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
}

// Default returns the built-in registry.
func Default() *Registry {
	return &Registry{
		Languages: []Language{{
			Label:        "English",
			Value:        "en",
			TTSModel:     "cartesia",
			DefaultVoice: "156fb8d2-335b-4950-9cb3-a2d33befec77",
			LLMProvider:  "openai",
			LLMModel:     "gpt-4o",
			STTProvider:  "deepgram",
			STTModel:     "nova-3-general",
		}},
		LLMModelChoices: []ProviderChoice{{
			Label: "OpenAI",
			Value: "openai",
			Models: []Model{
				{Label: "GPT-4o", Value: "gpt-4o"},
				{Label: "GPT-4o Mini", Value: "gpt-4o-mini"},
			},
		}},
		TTSModelChoices: []ProviderChoice{{
			Label:  "Cartesia",
			Value:  "cartesia",
			Models: cartesiaVoices,
		}},
		BotPrompt: map[string]string{"en": englishPrompt},
		DefaultServices: callconfig.ServicesMapping{
			LLM: "openai",
			TTS: "cartesia",
			STT: "deepgram",
		},
		DefaultLLM: DefaultLLM{Provider: "anker", Model: "anker-prod"},
		VAD: VADDefaults{
			StartSecs:  0.2,
			StopSecs:   0.8,
			Confidence: 1,
			MinVolume:  0.6,
		},
	}
}

var cartesiaVoices = []Model{
	{Label: "Jacqueline (F)", Value: "9626c31c-bec5-4cca-baa8-f8ba9e84c8bc", Language: "en"},
	{Label: "Brooke (F)", Value: "6f84f4b8-58a2-430c-8c79-688dad597532", Language: "en"},
	{Label: "Jordan (M)", Value: "87bc56aa-ab01-4baa-9071-77d497064686", Language: "en"},
	{Label: "Vexa (F)", Value: "156fb8d2-335b-4950-9cb3-a2d33befec77", Language: "en"},
	{Label: "Chongz (M)", Value: "146485fd-8736-41c7-88a8-7cdd0da34d84", Language: "en"},
	{Label: "Keith (M)", Value: "9fa83ce3-c3a8-4523-accc-173904582ced", Language: "en"},
	{Label: "Ronald (M)", Value: "5ee9feff-1265-424a-9d7f-8e4d431a12c7", Language: "en"},
	{Label: "Salesman (M)", Value: "820a3788-2b37-4d21-847a-b65d8a68c99a", Language: "en"},
	{Label: "Joan (F)", Value: "5abd2130-146a-41b1-bcdb-974ea8e19f56", Language: "en"},
	{Label: "Connie (F)", Value: "8d8ce8c9-44a4-46c4-b10f-9a927b99a853", Language: "en"},
	{Label: "Professional women (F)", Value: "248be419-c632-4f23-adf1-5324ed7dbf1d", Language: "en"},
	{Label: "教授", Value: "c59c247b-6aa9-4ab6-91f9-9eabea7dc69e", Language: "zh"},
	{Label: "接线员", Value: "3a63e2d1-1c1e-425d-8e79-5100bc910e90", Language: "zh"},
	{Label: "Kenji (M)", Value: "6b92f628-be90-497c-8f4c-3b035002df71", Language: "ja"},
	{Label: "Yuki (F)", Value: "59d4fd2f-f5eb-4410-8105-58db7661144f", Language: "ja"},
	{Label: "Yumi (F)", Value: "2b568345-1d48-4047-b25f-7baccf842eb0", Language: "ja"},
	{Label: "Yuto (M)", Value: "e8a863c6-22c7-4671-86ca-91cacffc038d", Language: "ja"},
}

// Load reads a YAML file and overlays every non-empty section on top of
// the built-in registry. An empty path returns Default().
func Load(path string) (*Registry, error) {
	reg := Default()
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}

	var file Registry
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}

	if len(file.Languages) > 0 {
		reg.Languages = file.Languages
	}
	if len(file.LLMModelChoices) > 0 {
		reg.LLMModelChoices = file.LLMModelChoices
	}
	if len(file.TTSModelChoices) > 0 {
		reg.TTSModelChoices = file.TTSModelChoices
	}
	for lang, prompt := range file.BotPrompt {
		reg.BotPrompt[lang] = prompt
	}
	if file.DefaultServices != (callconfig.ServicesMapping{}) {
		reg.DefaultServices = file.DefaultServices
	}
	if file.DefaultLLM != (DefaultLLM{}) {
		reg.DefaultLLM = file.DefaultLLM
	}
	if file.VAD != (VADDefaults{}) {
		reg.VAD = file.VAD
	}
	return reg, nil
}

// Language returns the language entry for code.
func (r *Registry) Language(code string) (Language, bool) {
	i := slices.IndexFunc(r.Languages, func(l Language) bool { return l.Value == code })
	if i < 0 {
		return Language{}, false
	}
	return r.Languages[i], true
}

// ValidateLLM checks that model is offered by provider. Providers without a
// catalog entry (self-hosted ones) are accepted as-is.
func (r *Registry) ValidateLLM(provider, model string) error {
	return validate(r.LLMModelChoices, provider, model)
}

// ValidateVoice checks that voice is offered by the TTS provider.
func (r *Registry) ValidateVoice(provider, voice string) error {
	return validate(r.TTSModelChoices, provider, voice)
}

// DefaultLLMModel returns the first model offered by provider.
func (r *Registry) DefaultLLMModel(provider string) (string, bool) {
	choice, ok := findProvider(r.LLMModelChoices, provider)
	if !ok || len(choice.Models) == 0 {
		return "", false
	}
	return choice.Models[0].Value, true
}

// VoicesFor returns the voices of a TTS provider for a language.
func (r *Registry) VoicesFor(provider, language string) []Model {
	choice, ok := findProvider(r.TTSModelChoices, provider)
	if !ok {
		return nil
	}
	var out []Model
	for _, m := range choice.Models {
		if m.Language == "" || m.Language == language {
			out = append(out, m)
		}
	}
	return out
}

// DefaultSettings seeds brand-new call settings from the first language.
func (r *Registry) DefaultSettings() *callconfig.CallSettings {
	lang := Language{Value: "en"}
	if len(r.Languages) > 0 {
		lang = r.Languages[0]
	}

	str := callconfig.String
	config := callconfig.SessionConfig{
		callconfig.NewServiceConfig(callconfig.ServiceVAD,
			callconfig.Opt(callconfig.OptParams, callconfig.Record(map[string]float64{
				callconfig.VADStartSecs:  r.VAD.StartSecs,
				callconfig.VADStopSecs:   r.VAD.StopSecs,
				callconfig.VADConfidence: r.VAD.Confidence,
				callconfig.VADMinVolume:  r.VAD.MinVolume,
			})),
		),
		callconfig.NewServiceConfig(callconfig.ServiceTTS,
			callconfig.Opt(callconfig.OptProvider, str(lang.TTSModel)),
			callconfig.Opt(callconfig.OptVoice, str(lang.DefaultVoice)),
			callconfig.Opt(callconfig.OptModel, str(lang.TTSModel)),
			callconfig.Opt(callconfig.OptLanguage, str(lang.Value)),
		),
		callconfig.NewServiceConfig(callconfig.ServiceLLM,
			callconfig.Opt(callconfig.OptProvider, str(r.DefaultLLM.Provider)),
			callconfig.Opt(callconfig.OptModel, str(r.DefaultLLM.Model)),
			callconfig.Opt(callconfig.OptSystemPrompt, str(r.BotPrompt[lang.Value])),
			callconfig.Opt("run_on_config", callconfig.Bool(true)),
		),
		callconfig.NewServiceConfig(callconfig.ServiceSTT,
			callconfig.Opt(callconfig.OptProvider, str(lang.STTProvider)),
			callconfig.Opt(callconfig.OptModel, str(lang.STTModel)),
			callconfig.Opt(callconfig.OptLanguage, str(lang.Value)),
		),
	}

	return &callconfig.CallSettings{
		Config:   config,
		Services: r.DefaultServices,
	}
}

func findProvider(choices []ProviderChoice, provider string) (ProviderChoice, bool) {
	i := slices.IndexFunc(choices, func(c ProviderChoice) bool { return c.Value == provider })
	if i < 0 {
		return ProviderChoice{}, false
	}
	return choices[i], true
}

func validate(choices []ProviderChoice, provider, model string) error {
	choice, ok := findProvider(choices, provider)
	if !ok {
		return nil
	}
	if slices.ContainsFunc(choice.Models, func(m Model) bool { return m.Value == model }) {
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrUnknownModel, provider, model)
}
