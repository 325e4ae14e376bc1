package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"recordkit/internal/service"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type itemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type repriceRequest struct {
	Price float64 `json:"price"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db Pinger, itemSvc service.ItemService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/items", ListItems(itemSvc))
	app.Get("/items/raw", ListRows(itemSvc))
	app.Post("/items", CreateItem(itemSvc))
	app.Post("/items/reprice", RepriceItems(itemSvc))
	app.Get("/items/:id", GetItem(itemSvc))
	app.Put("/items/:id", UpdateItem(itemSvc))
}

// HealthCheck checks DB connectivity only.
//
// @Summary Database health
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
//
// @Summary Liveness probe
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListItems returns every item.
//
// @Summary List items
// @Produce json
// @Success 200 {object} service.ItemListResult
// @Router /items [get]
func ListItems(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// ListRows returns the raw rows of the items table.
//
// @Summary List raw item rows
// @Produce json
// @Success 200 {array} map[string]any
// @Router /items/raw [get]
func ListRows(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.Rows(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rows)
	}
}

// CreateItem stores a new item.
//
// @Summary Create item
// @Accept json
// @Produce json
// @Param item body itemRequest true "item"
// @Success 201 {object} model.Item
// @Failure 400 {object} errorPayload
// @Router /items [post]
func CreateItem(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req itemRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		item, err := svc.Create(c.UserContext(), req.Name, req.Price)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// GetItem returns an item by ID.
//
// @Summary Get item
// @Produce json
// @Param id path int true "item id"
// @Success 200 {object} model.Item
// @Failure 404 {object} errorPayload
// @Router /items/{id} [get]
func GetItem(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		item, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(item)
	}
}

// UpdateItem overwrites an existing item in place.
//
// @Summary Update item
// @Accept json
// @Produce json
// @Param id path int true "item id"
// @Param item body itemRequest true "item"
// @Success 200 {object} model.Item
// @Failure 404 {object} errorPayload
// @Router /items/{id} [put]
func UpdateItem(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req itemRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		item, err := svc.Update(c.UserContext(), id, req.Name, req.Price)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(item)
	}
}

// RepriceItems sets one price on every item.
//
// @Summary Reprice all items
// @Accept json
// @Produce json
// @Param price body repriceRequest true "new price"
// @Success 200 {object} record.Result
// @Router /items/reprice [post]
func RepriceItems(svc service.ItemService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req repriceRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Reprice(c.UserContext(), req.Price)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
