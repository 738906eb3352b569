package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/domain"
	"coop-server/internal/coop/httpapi/internal"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/httpserver"
)

const (
	invalidBodyErrMessage = "invalid request body"
	retryAfterSeconds     = "1"
)

func NewCoopController(service usecases.CoopService) *CoopController {
	return &CoopController{
		service: service,
	}
}

var _ httpserver.Controller = &CoopController{}

type CoopController struct {
	service usecases.CoopService
}

func (c *CoopController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /coop/status", c.status())
	router.Handle("GET /coop/opentime", c.openingTime())
	router.Handle("GET /coop/closetime", c.closingTime())
	router.Handle("GET /coop/{reading}", c.reading())
	router.Handle("PUT /coop/door", c.commandDoor())
	router.Handle("PUT /coop/reset", c.reset())
	router.Handle("POST /coop/echo", c.echo())
}

func (c *CoopController) reading() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseReadingKind(httpserver.GetPathParam(r, "reading"))
		if err != nil {
			httpserver.ReplyWithError(w, http.StatusNotFound, err.Error())
			return
		}

		if !httpserver.GetBoolQueryParam(r, "fresh") {
			httpserver.ReplyJSONResponse(w, http.StatusOK, c.service.Reading(r.Context(), kind))
			return
		}

		value, err := c.service.RefreshReading(r.Context(), kind)
		if err != nil {
			replyBusError(w, err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, value)
	}
}

func (c *CoopController) openingTime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opening, err := c.service.OpeningTime(r.Context())
		if err != nil {
			httpserver.ReplyWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, opening.Format(time.RFC3339))
	}
}

func (c *CoopController) closingTime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		closing, err := c.service.ClosingTime(r.Context())
		if err != nil {
			httpserver.ReplyWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, closing.Format(time.RFC3339))
	}
}

func (c *CoopController) status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.ReplyJSONResponse(w, http.StatusOK, c.service.Status(r.Context()))
	}
}

func (c *CoopController) commandDoor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body internal.DoorRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, invalidBodyErrMessage)
			return
		}

		dir, err := domain.ParseDoorDirection(body.Dir)
		if err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		value, err := c.service.CommandDoor(r.Context(), dir)
		if err != nil {
			replyBusError(w, err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, value)
	}
}

func (c *CoopController) reset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := c.service.Reset(r.Context())
		if err != nil {
			replyBusError(w, err)
			return
		}

		slog.Info("coop board reset requested", slog.String("remote_addr", r.RemoteAddr))
		httpserver.ReplyJSONResponse(w, http.StatusOK, value)
	}
}

func (c *CoopController) echo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body internal.EchoRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, invalidBodyErrMessage)
			return
		}

		value, err := c.service.Echo(r.Context(), []byte(body.Data))
		if err != nil {
			replyBusError(w, err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, value)
	}
}

// replyBusError keeps a busy bus distinguishable from transport faults so
// clients know a retry is worth it.
func replyBusError(w http.ResponseWriter, err error) {
	code := bus.ErrorCode(err)
	switch {
	case errors.Is(err, bus.ErrBusy):
		w.Header().Set("Retry-After", retryAfterSeconds)
		httpserver.ReplyWithErrorCode(w, http.StatusServiceUnavailable, code, err.Error())
	case errors.Is(err, bus.ErrWrite), errors.Is(err, bus.ErrRead), errors.Is(err, bus.ErrTransportTimeout):
		httpserver.ReplyWithErrorCode(w, http.StatusBadGateway, code, err.Error())
	case errors.Is(err, domain.ErrInvalidDirection), errors.Is(err, domain.ErrUnknownReading):
		httpserver.ReplyWithError(w, http.StatusBadRequest, err.Error())
	default:
		httpserver.ReplyWithErrorCode(w, http.StatusInternalServerError, code, err.Error())
	}
}
