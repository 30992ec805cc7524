package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"turcrm/internal/services"
)

type PreferenceHandler struct {
	Service services.PreferenceService
}

func NewPreferenceHandler(service services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{Service: service}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	v, err := h.Service.Get(c.Request.Context(), userID, c.Param("key"))
	if err != nil {
		respondError(c, "preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": v})
}

// Put принимает само значение ("table", {...}) или {"value": ...}.
func (h *PreferenceHandler) Put(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON"})
		return
	}
	var wrapped struct {
		Value json.RawMessage `json:"value"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && len(wrapped.Value) > 0 {
		raw = wrapped.Value
	}

	userID, _ := getUserAndRole(c)
	v, err := h.Service.Put(c.Request.Context(), userID, c.Param("key"), raw)
	if err != nil {
		respondError(c, "preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": v})
}
