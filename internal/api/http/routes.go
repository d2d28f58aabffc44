package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/datalake-native/internal/runner"
	"github.com/i474232898/datalake-native/internal/scheduler"
	"github.com/i474232898/datalake-native/internal/service"
	"github.com/i474232898/datalake-native/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc *service.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/metrics", func(c *fiber.Ctx) error {
		rollup, err := svc.GetMetrics(c.Context())
		if err != nil {
			return storeError(err)
		}
		return c.JSON(rollup)
	})

	v1.Get("/jobs", func(c *fiber.Ctx) error {
		req, err := parsePageQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		page, err := svc.GetJobs(c.Context(), req.Page, req.PageSize)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(page)
	})

	v1.Post("/jobs/trigger/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")

		err := svc.TriggerCollection(c.Context(), name)
		switch {
		case errors.Is(err, scheduler.ErrUnknownJob):
			return fiber.NewError(fiber.StatusNotFound, "unknown job: "+name)
		case errors.Is(err, runner.ErrAlreadyRunning):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"job":    name,
				"status": "already_running",
			})
		case err != nil:
			return storeError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job":    name,
			"status": "accepted",
		})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		req, err := parsePageQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		page, err := svc.GetWeather(c.Context(), req.Page, req.PageSize)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(page)
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		reading, err := svc.GetLatestWeather(c.Context())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data collected yet")
			}
			return storeError(err)
		}
		return c.JSON(reading)
	})

	v1.Get("/storage/info", func(c *fiber.Ctx) error {
		info, err := svc.GetStorageInfo(c.Context())
		if err != nil {
			return storeError(err)
		}
		return c.JSON(info)
	})

	v1.Get("/health/report", func(c *fiber.Ctx) error {
		report, err := svc.CheckHealth(c.Context())
		if err != nil {
			return storeError(err)
		}
		return c.JSON(report)
	})
}

// storeError maps store failures onto HTTP statuses. Missing data never
// reaches here; queries degrade to empty results before this point.
func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidQuery):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage backend unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// pageQuery holds pagination query parameters.
type pageQuery struct {
	Page     int `validate:"gte=1"`
	PageSize int `validate:"gte=1,lte=100"`
}

func parsePageQuery(c *fiber.Ctx) (pageQuery, error) {
	q := pageQuery{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
