package http

import (
	"net/http"

	"github.com/GoSim-25-26J-441/items-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/items-backend/internal/items/domain"
	"github.com/GoSim-25-26J-441/items-backend/internal/logger"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the items resource. Every persistence failure becomes the same 500 response.
//
// POST and PUT bodies must be a JSON object. An empty body is rejected with 400
// like any other malformed body; it is not treated as {}.
type Handler struct {
	repo persistence.ItemRepository
	log  *logger.Logger
}

func NewHandler(repo persistence.ItemRepository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/items", h.getItems)
	r.POST("/items", h.addItem)
	r.PUT("/items/:id", h.updateItem)
	r.DELETE("/items/:id", h.deleteItem)
}

func (h *Handler) getItems(c *gin.Context) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		h.fail(c, "list_items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) addItem(c *gin.Context) {
	var in domain.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	item, err := h.repo.CreateItem(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create_item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	id := c.Param("id")

	var in domain.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	item, err := h.repo.UpdateItem(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update_item", err, zap.String("item_id", id))
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.DeleteItem(c.Request.Context(), id); err != nil {
		h.fail(c, "delete_item", err, zap.String("item_id", id))
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) fail(c *gin.Context, op string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("request_id", middleware.GetRequestID(c.Request.Context())),
		zap.String("operation", op),
		zap.Error(err),
	)
	h.log.Error("persistence operation failed", fields...)

	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
}
