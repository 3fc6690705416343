package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

func TestDefaultSettings(t *testing.T) {
	settings := Default().DefaultSettings()

	if err := settings.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if len(settings.Config) != 4 {
		t.Fatalf("len(config) = %d, want 4", len(settings.Config))
	}

	flat := callconfig.ToFlat(settings.Config)
	if flat.LLM.Provider == nil || *flat.LLM.Provider != "anker" {
		t.Errorf("llm.provider = %v", flat.LLM.Provider)
	}
	if flat.TTS.Voice == nil || *flat.TTS.Voice != "156fb8d2-335b-4950-9cb3-a2d33befec77" {
		t.Errorf("tts.voice = %v", flat.TTS.Voice)
	}
	if flat.LLM.SystemPrompt == nil || *flat.LLM.SystemPrompt == "" {
		t.Error("system prompt should be seeded")
	}
	p := flat.VAD.Params
	if p == nil || *p.StartSecs != 0.2 || *p.StopSecs != 0.8 || *p.Confidence != 1 || *p.MinVolume != 0.6 {
		t.Errorf("vad params = %+v", p)
	}
	if settings.Services.STT != "deepgram" {
		t.Errorf("services.stt = %q", settings.Services.STT)
	}
}

func TestValidateLLM(t *testing.T) {
	reg := Default()

	tests := []struct {
		provider, model string
		wantErr         bool
	}{
		{"openai", "gpt-4o", false},
		{"openai", "gpt-4o-mini", false},
		{"openai", "gpt-2", true},
		{"anker", "anker-prod", false},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			err := reg.ValidateLLM(tt.provider, tt.model)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownModel) {
				t.Errorf("err = %v, want ErrUnknownModel", err)
			}
		})
	}
}

func TestVoicesFor(t *testing.T) {
	reg := Default()
	if got := len(reg.VoicesFor("cartesia", "ja")); got != 4 {
		t.Errorf("ja voices = %d, want 4", got)
	}
	if got := reg.VoicesFor("elevenlabs", "en"); got != nil {
		t.Errorf("unknown provider voices = %v", got)
	}
	if model, ok := reg.DefaultLLMModel("openai"); !ok || model != "gpt-4o" {
		t.Errorf("DefaultLLMModel = %q, %v", model, ok)
	}
	if _, ok := reg.Language("fr"); ok {
		t.Error("fr should not be registered")
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		reg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if len(reg.Languages) != 1 {
			t.Errorf("languages = %d", len(reg.Languages))
		}
	})

	t.Run("overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.yaml")
		data := []byte(`
languages:
  - label: Japanese
    value: ja
    tts_model: cartesia
    default_voice: 59d4fd2f-f5eb-4410-8105-58db7661144f
    stt_provider: deepgram
    stt_model: nova-2
bot_prompt:
  ja: 日本語で答えてください。
default_llm:
  provider: openai
  model: gpt-4o-mini
`)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}

		reg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if reg.Languages[0].Value != "ja" {
			t.Errorf("language = %q", reg.Languages[0].Value)
		}
		if reg.BotPrompt["en"] == "" || reg.BotPrompt["ja"] == "" {
			t.Error("prompts should be merged")
		}
		if len(reg.TTSModelChoices[0].Models) != 17 {
			t.Error("tts choices should be kept from defaults")
		}

		flat := callconfig.ToFlat(reg.DefaultSettings().Config)
		if *flat.LLM.Model != "gpt-4o-mini" || *flat.TTS.Language != "ja" {
			t.Errorf("seeded settings = %+v / %+v", flat.LLM, flat.TTS)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error")
		}
	})
}

type fakeLister struct {
	models []string
	err    error
}

func (f fakeLister) ListModels(ctx context.Context) (openai.ModelsList, error) {
	var list openai.ModelsList
	for _, id := range f.models {
		list.Models = append(list.Models, openai.Model{ID: id})
	}
	return list, f.err
}

func TestRefreshOpenAI(t *testing.T) {
	ctx := context.Background()

	t.Run("filters unavailable models", func(t *testing.T) {
		reg := Default()
		removed, err := reg.RefreshOpenAI(ctx, fakeLister{models: []string{"gpt-4o", "whisper-1"}})
		if err != nil {
			t.Fatal(err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}
		if err := reg.ValidateLLM("openai", "gpt-4o-mini"); err == nil {
			t.Error("gpt-4o-mini should be filtered out")
		}
	})

	t.Run("keeps catalog when nothing matches", func(t *testing.T) {
		reg := Default()
		removed, err := reg.RefreshOpenAI(ctx, fakeLister{models: []string{"dall-e-3"}})
		if err != nil || removed != 0 {
			t.Fatalf("removed = %d, err = %v", removed, err)
		}
		if len(reg.LLMModelChoices[0].Models) != 2 {
			t.Error("catalog should be untouched")
		}
	})

	t.Run("error leaves registry alone", func(t *testing.T) {
		reg := Default()
		if _, err := reg.RefreshOpenAI(ctx, fakeLister{err: errors.New("401")}); err == nil {
			t.Error("expected error")
		}
		if len(reg.LLMModelChoices[0].Models) != 2 {
			t.Error("catalog should be untouched")
		}
	})
}
