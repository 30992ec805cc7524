package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turcrm/internal/models"
	"turcrm/internal/services"
)

type TouristHandler struct {
	Service services.TouristService
	Visits  services.SummaryService
}

func NewTouristHandler(service services.TouristService, visits services.SummaryService) *TouristHandler {
	return &TouristHandler{Service: service, Visits: visits}
}

func (h *TouristHandler) List(c *gin.Context) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.Service.List(c.Request.Context(), leadID)
	if err != nil {
		respondError(c, "tourist", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TouristHandler) Create(c *gin.Context) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.TouristPatch
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.Service.Create(c.Request.Context(), leadID, in)
	if err != nil {
		respondError(c, "tourist", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// SetPrimary отдаёт весь обновлённый список туристов заявки.
func (h *TouristHandler) SetPrimary(c *gin.Context) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	touristID, ok := paramID(c, "touristId")
	if !ok {
		return
	}
	list, err := h.Service.SetPrimary(c.Request.Context(), leadID, touristID)
	if err != nil {
		respondError(c, "tourist", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TouristHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.TouristPatch
	if !bindJSON(c, &patch) {
		return
	}
	t, err := h.Service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "tourist", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TouristHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "tourist", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TouristHandler) CreateVisit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.VisitPatch
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.Visits.CreateVisit(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "visit", err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *TouristHandler) UpdateVisit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	visitID, ok := paramID(c, "visitId")
	if !ok {
		return
	}
	var patch models.VisitPatch
	if !bindJSON(c, &patch) {
		return
	}
	v, err := h.Visits.UpdateVisit(c.Request.Context(), id, visitID, patch)
	if err != nil {
		respondError(c, "visit", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *TouristHandler) DeleteVisit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	visitID, ok := paramID(c, "visitId")
	if !ok {
		return
	}
	if err := h.Visits.DeleteVisit(c.Request.Context(), id, visitID); err != nil {
		respondError(c, "visit", err)
		return
	}
	c.Status(http.StatusNoContent)
}
