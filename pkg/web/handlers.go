package web

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/rtvi-console/pkg/bot"
	"github.com/teslashibe/rtvi-console/pkg/callconfig"
	"github.com/teslashibe/rtvi-console/pkg/registry"
	"github.com/teslashibe/rtvi-console/pkg/session"
)

// ConnectRequest is the /api/connect body. Services is accepted for
// compatibility with RTVI clients and otherwise ignored.
type ConnectRequest struct {
	Services callconfig.ServicesMapping `json:"services"`
	Config   callconfig.SessionConfig   `json:"config"`
}

// ErrorResponse is returned when provisioning fails.
type ErrorResponse struct {
	Error string        `json:"error"`
	Step  session.State `json:"step,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleConnect(c *fiber.Ctx) error {
	if s.cfg.Provisioner == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "provisioning not configured")
	}

	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := req.Config.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := s.cfg.Provisioner.Provision(c.UserContext(), req.Config)
	if err != nil {
		var perr *session.ProvisioningError
		if !errors.As(err, &perr) {
			return err
		}
		status, msg := fiber.StatusBadGateway, perr.Error()
		switch kind := perr.Kind(); kind {
		case session.ErrAllocation:
			status, msg = fiber.StatusServiceUnavailable, kind.Error()
		case session.ErrIssuance, session.ErrDispatch:
			msg = kind.Error()
		}
		return c.Status(status).JSON(ErrorResponse{Error: msg, Step: perr.Step})
	}
	return c.JSON(res)
}

func (s *Server) handleRegistry(c *fiber.Ctx) error {
	return c.JSON(s.cfg.Registry)
}

func (s *Server) handleBotStatus(c *fiber.Ctx) error {
	if s.cfg.Bots == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "bot runtime not configured")
	}
	pid, err := strconv.Atoi(c.Params("pid"))
	if err != nil || pid <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pid")
	}

	st, err := s.cfg.Bots.Status(c.UserContext(), pid)
	if err != nil {
		var apiErr *bot.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return fiber.NewError(fiber.StatusNotFound, apiErr.Message)
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(st)
}

// flatSegment names the flat view under /call-settings, so it cannot be
// used as a client id.
const flatSegment = "flat"

// clientID copies the route param; fiber reuses its buffer after the
// handler returns and stores keep the string.
func clientID(c *fiber.Ctx) (string, error) {
	id := strings.Clone(c.Params("clientId"))
	if id == flatSegment {
		return "", fiber.NewError(fiber.StatusBadRequest, `client id "flat" is reserved`)
	}
	return id, nil
}

// loadSettings returns the stored settings for the request's client, or
// the registry defaults when nothing is stored.
func (s *Server) loadSettings(c *fiber.Ctx) (*callconfig.CallSettings, error) {
	id, err := clientID(c)
	if err != nil {
		return nil, err
	}
	cs, err := s.cfg.Store.Get(c.UserContext(), id)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	if cs == nil {
		return s.cfg.Registry.DefaultSettings(), nil
	}
	return cs, nil
}

func (s *Server) saveSettings(c *fiber.Ctx, cs *callconfig.CallSettings) error {
	id, err := clientID(c)
	if err != nil {
		return err
	}
	if err := cs.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := checkCatalog(s.cfg.Registry, cs.Config); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if err := s.cfg.Store.Put(c.UserContext(), id, cs); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(cs)
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	cs, err := s.loadSettings(c)
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var cs callconfig.CallSettings
	if err := c.BodyParser(&cs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return s.saveSettings(c, &cs)
}

func (s *Server) handlePatchSettings(c *fiber.Ctx) error {
	var updates []callconfig.ServiceConfig
	if err := c.BodyParser(&updates); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	current, err := s.loadSettings(c)
	if err != nil {
		return err
	}
	return s.saveSettings(c, current.Apply(updates))
}

func (s *Server) handleFlatSettings(c *fiber.Ctx) error {
	cs, err := s.loadSettings(c)
	if err != nil {
		return err
	}
	return c.JSON(callconfig.ToFlat(cs.Config))
}

// checkCatalog rejects llm models and tts voices the registry knows the
// provider does not offer.
func checkCatalog(reg *registry.Registry, cfg callconfig.SessionConfig) error {
	flat := callconfig.ToFlat(cfg)
	if flat.LLM.Provider != nil && flat.LLM.Model != nil {
		if err := reg.ValidateLLM(*flat.LLM.Provider, *flat.LLM.Model); err != nil {
			return err
		}
	}
	if flat.TTS.Provider != nil && flat.TTS.Voice != nil {
		if err := reg.ValidateVoice(*flat.TTS.Provider, *flat.TTS.Voice); err != nil {
			return err
		}
	}
	return nil
}
