package server

import (
	"errors"

	"focuswatch/app/service/chat"
	"focuswatch/app/service/voice"

	"github.com/gofiber/fiber/v2"
)

type askRequest struct {
	Question string `json:"question" validate:"required"`
}

type toggleTargetRequest struct {
	Title string `json:"title" validate:"required"`
}

func (s *Service) index(c *fiber.Ctx) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(page)
}

func (s *Service) state(c *fiber.Ctx) error {
	return c.JSON(s.View())
}

// ask answers with the logged message even when the agent failed; the
// message then carries the explanation.
func (s *Service) ask(c *fiber.Ctx) error {
	var req askRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}

	msg, err := s.chatSvc.Ask(c.UserContext(), req.Question)
	if errors.Is(err, chat.ErrEmptyQuestion) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	s.eventsSvc.Publish(eventChat, msg)

	return c.JSON(msg)
}

func (s *Service) resetChat(c *fiber.Ctx) error {
	s.chatSvc.Reset()

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) targets(c *fiber.Ctx) error {
	return c.JSON(s.targetsSvc.State())
}

func (s *Service) refreshTargets(c *fiber.Ctx) error {
	if err := s.targetsSvc.Refresh(c.UserContext()); err != nil {
		return upstreamError(err)
	}

	return c.JSON(s.targetsSvc.State())
}

func (s *Service) toggleTarget(c *fiber.Ctx) error {
	var req toggleTargetRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}

	s.targetsSvc.Toggle(req.Title)

	return c.JSON(s.targetsSvc.State())
}

func (s *Service) saveTargets(c *fiber.Ctx) error {
	if _, err := s.targetsSvc.Save(c.UserContext()); err != nil {
		return upstreamError(err)
	}

	return c.JSON(s.targetsSvc.State())
}

func (s *Service) clearTargets(c *fiber.Ctx) error {
	if err := s.targetsSvc.Clear(c.UserContext()); err != nil {
		return upstreamError(err)
	}

	return c.JSON(s.targetsSvc.State())
}

func (s *Service) voice(c *fiber.Ctx) error {
	return c.JSON(s.voiceSvc.State())
}

func (s *Service) toggleVoice(c *fiber.Ctx) error {
	if _, err := s.voiceSvc.Toggle(c.UserContext()); err != nil {
		return upstreamError(err)
	}

	return c.JSON(s.voiceSvc.State())
}

func (s *Service) calibrate(c *fiber.Ctx) error {
	if _, err := s.voiceSvc.StartCalibration(s.baseCtx); err != nil {
		if errors.Is(err, voice.ErrCalibrationInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(s.voiceSvc.State())
}
