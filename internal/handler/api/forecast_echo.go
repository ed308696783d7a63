package api

import (
	"errors"
	"strconv"
	"time"

	models "BrentCast/internal/domain/models"
	"BrentCast/internal/usecase"
	xhttp "BrentCast/pkg/http"
	xlogger "BrentCast/pkg/logger"
	xutil "BrentCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler serves forecasts, history and training over HTTP.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	composer *usecase.Composer
	history  *usecase.HistoryService
	train    *usecase.TrainDispatcher
	trainMW  []echo.MiddlewareFunc
	now      func() time.Time
}

func NewForecastEchoHandler(logger *xlogger.Logger, composer *usecase.Composer, history *usecase.HistoryService,
	train *usecase.TrainDispatcher, trainMW ...echo.MiddlewareFunc) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ForecastEchoHandler{
		logger:   logger,
		composer: composer,
		history:  history,
		train:    train,
		trainMW:  trainMW,
		now:      time.Now,
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.GET("/history", h.History)
	g.GET("/history/analytics", h.Analytics)
	g.GET("/model", h.Model)
	g.POST("/train", h.Train, h.trainMW...)
}

// Forecast defaults to a 30 day horizon starting today.
func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start := xutil.Day(h.now())
	if req.Start != "" {
		t, ok := xhttp.ParseDate(req.Start)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("start must be a date (YYYY-MM-DD)"))
		}
		start = t
	}

	res, err := h.composer.Forecast(c.Request().Context(), start, *req.Days)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	if res.Cached {
		c.Response().Header().Set("X-Cache", "HIT")
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, _ := xhttp.ParseDate(req.From)
	to, _ := xhttp.ParseDate(req.To)
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to must not be before from"))
	}

	rows, err := h.history.History(c.Request().Context(), from, to)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ForecastEchoHandler) Analytics(c echo.Context) error {
	req := &models.AnalyticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.history.Analytics(c.Request().Context(), req.Bins)
	if err != nil {
		h.logger.Error("analytics usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Model(c echo.Context) error {
	m, err := h.composer.Manifest(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, m)
}

// Train queues a cycle when a queue is configured and runs it inline otherwise.
func (h *ForecastEchoHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// echo binds query parameters for GET only
	if v := c.QueryParam("force"); v != "" && !req.Force {
		req.Force, _ = strconv.ParseBool(v)
	}
	ctx := c.Request().Context()

	if h.train.Queued() {
		id, err := h.train.Enqueue(ctx, req.Force)
		if err != nil {
			h.logger.Error("enqueue training failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("training queue unavailable").WithError(err))
		}
		return xhttp.AcceptedResponse(c, models.TrainAccepted{JobID: id, Queued: true})
	}

	rep, err := h.train.Train(ctx, req.Force)
	if err != nil {
		h.logger.Error("training failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	out := models.Health{Status: "ok"}
	m, err := h.composer.Manifest(c.Request().Context())
	var nt *models.ModelNotTrainedError
	switch {
	case err == nil:
		out.ModelTrained = true
		out.ModelID = m.ModelID
	case errors.As(err, &nt):
	default:
		h.logger.Warn("health: manifest unreadable", xlogger.Error(err))
		out.Status = "degraded"
	}
	return xhttp.SuccessResponse(c, out)
}
