package http

import (
	"net/http"
	"strconv"

	"kabu-advisor/internal/scheduler/dto"
	"kabu-advisor/internal/scheduler/repository"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handler serves the read-only inspection API.
type Handler struct {
	log  *logger.Logger
	repo repository.ReadRepository
}

func NewHandler(log *logger.Logger, repo repository.ReadRepository) *Handler {
	return &Handler{log: log, repo: repo}
}

// Register mounts the routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", h.health)
	v1 := e.Group("/api/v1")
	v1.GET("/runs/latest", h.latestRun)
	v1.GET("/runs", h.listRuns)
	v1.GET("/runs/:id/judgments", h.judgmentsByRun)
	v1.GET("/qs/candidates", h.candidates)
	v1.GET("/qs/signals", h.signals)
	v1.GET("/qs/positions", h.positions)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) latestRun(c echo.Context) error {
	run, err := h.repo.LatestRun(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no batch runs yet"})
	}
	return c.JSON(http.StatusOK, dto.Response{Data: run})
}

func (h *Handler) listRuns(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.repo.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto.Response{Data: runs})
}

func (h *Handler) judgmentsByRun(c echo.Context) error {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid run id"})
	}
	judgments, err := h.repo.JudgmentsByRun(c.Request().Context(), runID, c.QueryParam("signal"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto.Response{Data: judgments})
}

func (h *Handler) candidates(c echo.Context) error {
	tradeDate := c.QueryParam("trade_date")
	if tradeDate == "" {
		tradeDate = utils.TradeDate(utils.TimeNowJST())
	}
	candidates, err := h.repo.CandidatesByDate(c.Request().Context(), tradeDate)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto.Response{Data: candidates})
}

func (h *Handler) signals(c echo.Context) error {
	tradeDate := c.QueryParam("trade_date")
	if tradeDate == "" {
		tradeDate = utils.TradeDate(utils.TimeNowJST())
	}
	signals, err := h.repo.SignalsByDate(c.Request().Context(), tradeDate)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto.Response{Data: signals})
}

func (h *Handler) positions(c echo.Context) error {
	positions, err := h.repo.ListPositions(c.Request().Context(), c.QueryParam("state"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto.Response{Data: positions})
}

func (h *Handler) fail(c echo.Context, err error) error {
	h.log.Error("api request failed",
		logger.StringField("path", c.Path()),
		logger.ErrorField(err))
	return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}
