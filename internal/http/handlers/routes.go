package handlers

import (
	"net/http"
	"strconv"

	"directionmap/internal/domain/models"
	"directionmap/internal/http/middleware"
	"directionmap/internal/services"
	"directionmap/internal/utils"

	"github.com/gin-gonic/gin"
)

// RouteHandler serves the route lifecycle endpoints. The service carries
// the orchestration; this layer only translates transport concerns.
type RouteHandler struct {
	Service services.RouteService
	Export  services.ExportService
}

// GET /api/dashboard
func (h RouteHandler) Dashboard(c *gin.Context) {
	userID := middleware.GetUserID(c)

	list, err := h.Service.List(userID)
	if err != nil {
		RespondDomainError(c, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": list})
}

// POST /api/routes
func (h RouteHandler) CreateRoute(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var in services.RouteInput
	if !BindJSONOrError(c, &in) {
		return
	}

	if _, err := h.Service.Create(c.Request.Context(), userID, in); err != nil {
		RespondDomainError(c, "create", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": services.MsgRouteAdded,
		"routes":  h.refreshedRoutes(c, userID),
	})
}

// PUT /api/routes/:id
func (h RouteHandler) UpdateRoute(c *gin.Context) {
	userID := middleware.GetUserID(c)

	routeID, ok := parseID(c)
	if !ok {
		return
	}

	var in services.RouteInput
	if !BindJSONOrError(c, &in) {
		return
	}

	if _, err := h.Service.Update(c.Request.Context(), userID, routeID, in); err != nil {
		RespondDomainError(c, "update", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": services.MsgRouteUpdated,
		"routes":  h.refreshedRoutes(c, userID),
	})
}

// DELETE /api/routes/:id
func (h RouteHandler) DeleteRoute(c *gin.Context) {
	userID := middleware.GetUserID(c)

	routeID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.Service.Delete(userID, routeID); err != nil {
		RespondDomainError(c, "delete", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": services.MsgRouteDeleted,
		"routes":  h.refreshedRoutes(c, userID),
	})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

// DELETE /api/routes/bulk
func (h RouteHandler) BulkDeleteRoutes(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req bulkDeleteRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	deleted, err := h.Service.BulkDelete(userID, req.IDs)
	if err != nil {
		RespondDomainError(c, "bulk_delete", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": services.BulkDeleteMessage(deleted),
		"deleted": deleted,
		"routes":  h.refreshedRoutes(c, userID),
	})
}

// GET /api/routes/:id/export
func (h RouteHandler) ExportRoutePDF(c *gin.Context) {
	userID := middleware.GetUserID(c)

	routeID, ok := parseID(c)
	if !ok {
		return
	}

	pdf, filename, err := h.Export.GenerateRoutePDF(routeID, userID)
	if err != nil {
		RespondDomainError(c, "export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h RouteHandler) refreshedRoutes(c *gin.Context, userID int64) []models.Route {
	list, err := h.Service.List(userID)
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "routes", "refresh", err.Error())
		return []models.Route{}
	}
	return list
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid route id", nil)
		return 0, false
	}
	return id, true
}
