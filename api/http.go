package api

import (
	"errors"
	"time"

	"journeytrack/ingest/domain"
	"journeytrack/ingest/services"
	"journeytrack/ingest/validations"

	"github.com/gofiber/fiber/v2"
)

var _ EventHandler = &eventHandler{nil}

type eventHandler struct {
	eventService domain.EventService
}

// PostEvent handles posting a single journey event
// @Summary Post a customer-journey event
// @Description Validate one event against the tagged schema and queue it for the time-series backend. Acceptance means queued, not durably stored.
// @Tags Events
// @Accept json
// @Produce json
// @Param event body object true "Event payload (tags and fields per event_type)"
// @Success 200 {object} domain.EventResponse "Event accepted"
// @Failure 400 {object} domain.EventResponse "Malformed body or validation failure"
// @Failure 503 {object} domain.EventResponse "Record queue is full"
// @Failure 500 {object} domain.EventResponse "Internal server error"
// @Router /events [post]
func (e eventHandler) PostEvent(ctx *fiber.Ctx) error {
	var raw domain.RawEvent
	if err := ctx.BodyParser(&raw); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(domain.EventResponse{
			Accepted: false,
			Message:  "invalid request body",
			Error: &domain.ErrorInfo{
				Code:    string(domain.ErrMalformedRequest),
				Message: err.Error(),
			},
		})
	}

	event, verr := validations.ValidateEvent(raw, time.Now().UTC())
	if verr != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(domain.EventResponse{
			Accepted: false,
			Message:  "validation failed",
			Error:    errorInfo(verr),
		})
	}

	resp, err := e.eventService.AcceptEvent(ctx.Context(), event)
	if err != nil {
		if errors.Is(err, services.ErrQueueFull) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(domain.EventResponse{
				Accepted: false,
				Message:  "service temporarily unavailable, please try again later",
				Error:    &domain.ErrorInfo{Code: string(domain.ErrQueueFull), Message: services.ErrQueueFull.Error()},
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(domain.EventResponse{
			Accepted: false,
			Message:  "internal server error",
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(resp)
}

// PostEventsBulk handles posting multiple journey events in one request
// @Summary Post a batch of customer-journey events
// @Description Validate and queue multiple events. Acceptance is per event: valid events are queued even when others in the batch are rejected.
// @Tags Events
// @Accept json
// @Produce json
// @Param events body []object true "Array of event payloads"
// @Success 200 {object} domain.BulkEventResponse "Per-event results"
// @Failure 400 {object} domain.EventResponse "Malformed body"
// @Failure 500 {object} domain.EventResponse "Internal server error"
// @Router /events/bulk [post]
func (e eventHandler) PostEventsBulk(ctx *fiber.Ctx) error {
	var raws []domain.RawEvent
	if err := ctx.BodyParser(&raws); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(domain.EventResponse{
			Accepted: false,
			Message:  "invalid request body",
			Error: &domain.ErrorInfo{
				Code:    string(domain.ErrMalformedRequest),
				Message: err.Error(),
			},
		})
	}
	if len(raws) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(domain.EventResponse{
			Accepted: false,
			Message:  "events array cannot be empty",
			Error: &domain.ErrorInfo{
				Code:    string(domain.ErrMalformedRequest),
				Message: "events array cannot be empty",
			},
		})
	}

	response := domain.BulkEventResponse{
		TotalCount: len(raws),
		Results:    make([]domain.EventResult, 0, len(raws)),
	}
	now := time.Now().UTC()

	for i, raw := range raws {
		event, verr := validations.ValidateEvent(raw, now)
		if verr != nil {
			response.RejectedCount++
			response.Results = append(response.Results, domain.EventResult{
				Index: i,
				Error: errorInfo(verr),
			})
			continue
		}

		resp, err := e.eventService.AcceptEvent(ctx.Context(), event)
		if err != nil {
			response.RejectedCount++
			code := string(domain.ErrQueueFull)
			if !errors.Is(err, services.ErrQueueFull) {
				code = "InternalError"
			}
			response.Results = append(response.Results, domain.EventResult{
				Index: i,
				Error: &domain.ErrorInfo{Code: code, Message: err.Error()},
			})
			continue
		}

		response.AcceptedCount++
		response.Results = append(response.Results, domain.EventResult{
			Index:    i,
			Accepted: true,
			Token:    resp.Token,
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(response)
}

// GetMetrics reports the batching writer's operational counters
// @Summary Writer metrics
// @Description Pipeline-local counters: queue depth, flushes, retries and dropped (lost) records.
// @Tags Metrics
// @Produce json
// @Success 200 {object} domain.MetricsResponse "Current writer counters"
// @Router /metrics [get]
func (e eventHandler) GetMetrics(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(domain.MetricsResponse{
		Success: true,
		Writer:  e.eventService.WriterStats(),
	})
}

func errorInfo(verr *domain.ValidationError) *domain.ErrorInfo {
	return &domain.ErrorInfo{
		Code:    string(verr.Kind),
		Field:   verr.Field,
		Message: verr.Message,
	}
}

func NewEventHandler(eventService domain.EventService) EventHandler {
	return &eventHandler{eventService: eventService}
}
