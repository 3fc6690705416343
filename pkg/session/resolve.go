package session

import (
	"github.com/teslashibe/rtvi-console/pkg/bot"
	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

// Resolve turns a submitted config into the bot start parameters for a
// provisioned room. Absent options are left nil and reported as warnings;
// the runtime decides whether it can work without them.
//
// The tts provider is read from the "provider" option and, for configs
// written by older editors, from "model". Older launchers sent "model" as
// the provider unconditionally; "provider" takes precedence because the
// settings editor keeps services.tts in sync with it.
func Resolve(cfg callconfig.SessionConfig, roomURL, tok string) (bot.StartParams, []Warning) {
	flat := callconfig.Resolve(cfg)

	ttsProvider := flat.TTS.Provider
	if ttsProvider == nil {
		ttsProvider = flat.TTS.Model
	}

	params := bot.StartParams{
		RoomURL:  roomURL,
		Token:    tok,
		Language: flat.TTS.Language,
		TTSModel: bot.TTSModel{
			Provider: ttsProvider,
			Voice:    flat.TTS.Voice,
		},
		LLMModel: bot.LLMModel{
			Provider:     flat.LLM.Provider,
			Model:        flat.LLM.Model,
			Customer:     *flat.LLM.Customer,
			SystemPrompt: flat.LLM.SystemPrompt,
		},
		VADParams: flat.VAD.Params.Values(),
	}

	var warnings []Warning
	check := func(ok bool, service callconfig.Service, option string) {
		if !ok {
			warnings = append(warnings, Warning{Service: string(service), Option: option})
		}
	}
	check(params.Language != nil, callconfig.ServiceTTS, callconfig.OptLanguage)
	check(ttsProvider != nil, callconfig.ServiceTTS, callconfig.OptProvider)
	check(params.TTSModel.Voice != nil, callconfig.ServiceTTS, callconfig.OptVoice)
	check(params.LLMModel.Provider != nil, callconfig.ServiceLLM, callconfig.OptProvider)
	check(params.LLMModel.Model != nil, callconfig.ServiceLLM, callconfig.OptModel)
	check(params.LLMModel.SystemPrompt != nil, callconfig.ServiceLLM, callconfig.OptSystemPrompt)
	check(flat.VAD.Params != nil, callconfig.ServiceVAD, callconfig.OptParams)

	return params, warnings
}
