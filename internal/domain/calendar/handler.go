package calendar

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/labstack/echo/v4"

	"github.com/ehr/calendar/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/calendar", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	read.GET("/view", h.GetView)
	read.GET("/navigate", h.Navigate)
	read.GET("/slots", h.ListSlots)
	read.GET("/week", h.GetWeek)
	read.GET("/month", h.GetMonth)
	read.POST("/layout", h.ComputeLayout)

	admin := api.Group("/calendar", auth.RequireRole("admin"))
	admin.POST("/cache/invalidate", h.InvalidateCache)
}

// -- request parsing --

func (h *Handler) dateParam(c echo.Context, now time.Time) (CalendarDate, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return civilDateIn(now, h.svc.Location()), nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return CalendarDate{}, echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return d, nil
}

func (h *Handler) nowParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("now")
	if raw == "" {
		return time.Now().In(h.svc.Location()), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid now, expected RFC3339")
	}
	return t.In(h.svc.Location()), nil
}

func modeParam(c echo.Context) (ViewMode, error) {
	raw := c.QueryParam("mode")
	if raw == "" {
		return DefaultViewMode, nil
	}
	m, err := ParseViewMode(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return m, nil
}

func optionalID(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func viewError(err error) error {
	if errors.Is(err, ErrInvalidInterval) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// -- handlers --

func (h *Handler) GetView(c echo.Context) error {
	mode, err := modeParam(c)
	if err != nil {
		return err
	}
	now, err := h.nowParam(c)
	if err != nil {
		return err
	}
	date, err := h.dateParam(c, now)
	if err != nil {
		return err
	}
	var f Filter
	if f.ProviderID, err = optionalID(c, "provider_id"); err != nil {
		return err
	}
	if f.ResourceID, err = optionalID(c, "resource_id"); err != nil {
		return err
	}

	view, err := h.svc.BuildView(c.Request().Context(), ViewRequest{Mode: mode, Date: date, Filter: f, Now: now})
	if err != nil {
		return viewError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Navigate(c echo.Context) error {
	mode, err := modeParam(c)
	if err != nil {
		return err
	}
	now, err := h.nowParam(c)
	if err != nil {
		return err
	}
	date, err := h.dateParam(c, now)
	if err != nil {
		return err
	}
	dir, err := ParseDirection(c.QueryParam("direction"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Navigate(mode, date, dir, now))
}

func (h *Handler) ListSlots(c echo.Context) error {
	return c.JSON(http.StatusOK, DaySlots())
}

func (h *Handler) GetWeek(c echo.Context) error {
	date, err := h.dateParam(c, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  date,
		"dates": WeekOf(date),
	})
}

func (h *Handler) GetMonth(c echo.Context) error {
	date, err := h.dateParam(c, time.Now())
	if err != nil {
		return err
	}
	first, last := RangeFor(ViewMonth, date)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  date,
		"from":  first,
		"to":    last,
		"weeks": MonthWeeks(date),
	})
}

// ComputeLayout runs the engine over the posted appointments and rules
// without touching the database or the cache.
func (h *Handler) ComputeLayout(c echo.Context) error {
	var req ComputeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Normalize(h.svc.Location()); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := Compute(req)
	if err != nil {
		return viewError(err)
	}
	return c.JSON(http.StatusOK, view)
}

type invalidateRequest struct {
	Dates []CalendarDate `json:"dates"`
	All   bool           `json:"all"`
}

func (h *Handler) InvalidateCache(c echo.Context) error {
	var req invalidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.All && len(req.Dates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "dates or all is required")
	}

	ctx := c.Request().Context()
	var err error
	if req.All {
		err = h.svc.InvalidateAll(ctx)
	} else {
		err = h.svc.InvalidateDates(ctx, req.Dates...)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
