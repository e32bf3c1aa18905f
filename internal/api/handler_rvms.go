package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rvm-status-backend/internal/filter"
	"rvm-status-backend/internal/model"
	"rvm-status-backend/internal/notification"
)

// rvmWriteRequest is the payload for create and full update. The id is
// server-assigned and never part of the input.
type rvmWriteRequest struct {
	Name      string     `json:"name" binding:"required"`
	Location  *string    `json:"location"`
	IsActive  *bool      `json:"is_active"`
	LastUsage *time.Time `json:"last_usage"`
}

// rvmPatchRequest is the payload for partial update; only supplied fields
// are touched.
type rvmPatchRequest struct {
	Name      *string    `json:"name" binding:"omitempty,min=1"`
	Location  *string    `json:"location"`
	IsActive  *bool      `json:"is_active"`
	LastUsage *time.Time `json:"last_usage"`
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid rvm ID"})
		return 0, false
	}
	return id, true
}

// ListRVMs handles GET /api/rvms. The reference time for the recency window
// is captured once here so every record in the listing is compared against
// the same cutoff.
func (h *Handler) ListRVMs(c *gin.Context) {
	now := time.Now().UTC()

	f, err := filter.FromQuery(c.Query, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rvms, err := h.store.ListRVMs(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rvms)
}

// GetRVM handles GET /api/rvms/:id. Inactive machines are invisible, so
// they 404 the same way unknown ids do.
func (h *Handler) GetRVM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rvm, err := h.store.GetRVM(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rvm not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, rvm)
}

// CreateRVM handles POST /api/rvms. Omitted fields take their defaults:
// location "Cairo", active true, no usage timestamp.
func (h *Handler) CreateRVM(c *gin.Context) {
	var req rvmWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rvm := model.RVM{
		Name:      req.Name,
		Location:  model.DefaultLocation,
		IsActive:  true,
		LastUsage: req.LastUsage,
	}
	if req.Location != nil {
		rvm.Location = *req.Location
	}
	if req.IsActive != nil {
		rvm.IsActive = *req.IsActive
	}

	if err := h.store.CreateRVM(c.Request.Context(), &rvm); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rvm)
}

// UpdateRVM handles PUT and PATCH on /api/rvms/:id. PUT replaces the
// writable field set (omitted fields fall back to create defaults), PATCH
// touches only what the request supplies. Clearing is_active soft-deletes
// the machine: the record stays in storage but becomes unreachable through
// this API, including for later deletes.
func (h *Handler) UpdateRVM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rvm, err := h.store.GetRVM(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rvm not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if c.Request.Method == http.MethodPatch {
		var req rvmPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Name != nil {
			rvm.Name = *req.Name
		}
		if req.Location != nil {
			rvm.Location = *req.Location
		}
		if req.IsActive != nil {
			rvm.IsActive = *req.IsActive
		}
		if req.LastUsage != nil {
			rvm.LastUsage = req.LastUsage
		}
	} else {
		var req rvmWriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rvm.Name = req.Name
		rvm.Location = model.DefaultLocation
		rvm.IsActive = true
		rvm.LastUsage = req.LastUsage
		if req.Location != nil {
			rvm.Location = *req.Location
		}
		if req.IsActive != nil {
			rvm.IsActive = *req.IsActive
		}
	}

	if err := h.store.SaveRVM(c.Request.Context(), rvm); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The record came from the active set, so a cleared flag is always a
	// fresh deactivation.
	if !rvm.IsActive {
		h.notify(notification.Job{RVMID: rvm.ID, Name: rvm.Name, Event: notification.EventDeactivated})
	}

	c.JSON(http.StatusOK, rvm)
}

// DeleteRVM handles DELETE /api/rvms/:id: a hard delete, reachable only for
// machines that are still active.
func (h *Handler) DeleteRVM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rvm, err := h.store.GetRVM(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rvm not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if err := h.store.DeleteRVM(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rvm not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.notify(notification.Job{RVMID: rvm.ID, Name: rvm.Name, Event: notification.EventDeleted})

	c.Status(http.StatusNoContent)
}
