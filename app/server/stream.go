package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"focuswatch/app/service/events"

	"github.com/gofiber/fiber/v2"
)

const (
	eventState = events.KindState
	eventChat  = events.KindChat
	eventTool  = events.KindTool
)

// stream sends the full view on connect and on every state event. Chat and
// tool events are forwarded as they are.
func (s *Service) stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ch, release := s.eventsSvc.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer release()

		if err := s.writeEvent(w, events.Event{Kind: eventState}); err != nil {
			return
		}

		for {
			select {
			case <-s.done:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := s.writeEvent(w, ev); err != nil {
					slog.Debug("Event stream closed", "error", err)
					return
				}
			}
		}
	})

	return nil
}

func (s *Service) writeEvent(w *bufio.Writer, ev events.Event) error {
	data := ev.Data
	if ev.Kind == eventState {
		data = s.View()
	}

	if err := writeSSE(w, string(ev.Kind), data); err != nil {
		return err
	}

	return w.Flush()
}

func writeSSE(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
