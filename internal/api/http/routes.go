package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/meteotray/meteotray/internal/store"
	"github.com/meteotray/meteotray/internal/weather"
)

var validate = validator.New()

// Refresher triggers a refresh cycle for a location. False means the
// request was dropped because a cycle is already running.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location) bool
}

// Deps are the collaborators the HTTP layer reads from and triggers.
type Deps struct {
	Store     weather.Store
	Refresher Refresher

	// Locations is the configured location list; refresh requests are
	// resolved against it so the API cannot start cycles for arbitrary
	// city ids.
	Locations []weather.Location
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := deps.Store.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		bundle, err := deps.Store.GetForecast(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast")
		}

		return c.JSON(bundle)
	})

	v1.Get("/weather/enrichment", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		e, err := deps.Store.GetEnrichment(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no uv/ozone data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch uv/ozone data")
		}

		return c.JSON(e)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := deps.Store.GetRange(req.Location, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":  req.Location,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resolved, ok := resolveLocation(deps.Locations, loc.ID)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "location is not configured")
		}

		// The cycle outlives the request, so it must not inherit the
		// request's context.
		if !deps.Refresher.Refresh(context.Background(), resolved) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"status": "dropped",
				"reason": "a refresh cycle is already running",
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":   "accepted",
			"location": resolved,
		})
	})
}

func resolveLocation(locations []weather.Location, id string) (weather.Location, bool) {
	for _, loc := range locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return weather.Location{}, false
}

// locationQuery holds the query parameter identifying a location.
type locationQuery struct {
	ID string `validate:"required,numeric"`
}

func parseLocationQuery(c *fiber.Ctx) (weather.Location, error) {
	q := locationQuery{ID: c.Query("id")}
	if err := validate.Struct(q); err != nil {
		return weather.Location{}, err
	}
	return weather.Location{ID: q.ID}, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location weather.Location
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
