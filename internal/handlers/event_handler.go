package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turcrm/internal/models"
	"turcrm/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EventHandler struct {
	Service   services.EventService
	Summaries services.SummaryService
	Prefs     services.PreferenceService
}

func NewEventHandler(service services.EventService, summary services.SummaryService, prefs services.PreferenceService) *EventHandler {
	return &EventHandler{Service: service, Summaries: summary, Prefs: prefs}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, "event", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// @Summary      Создать тур
// @Description  Даты принимаются как YYYY-MM-DD или ISO-таймстемп, числа: числом или строкой
// @Tags         Events
// @Accept       json
// @Produce      json
// @Param        event  body      models.EventPayload  true  "Тур"
// @Success      201    {object}  models.Event
// @Failure      422    {object}  map[string]interface{}
// @Router       /api/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var p models.EventPayload
	if !bindJSON(c, &p) {
		return
	}
	e, err := h.Service.Create(c.Request.Context(), p)
	if err != nil {
		respondError(c, "event", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EventHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "event", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p models.EventPayload
	if !bindJSON(c, &p) {
		return
	}
	e, err := h.Service.Update(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, "event", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "event", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) Participants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.Participants(c.Request.Context(), id)
	if err != nil {
		respondError(c, "event", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// groupings: сохранённая пользователем ручная группировка для тура.
func (h *EventHandler) groupings(c *gin.Context, eventID int64) (models.GroupingOverrides, error) {
	userID, _ := getUserAndRole(c)
	return h.Prefs.TourGroupings(c.Request.Context(), userID, eventID)
}

// @Summary      Сводка по туру
// @Tags         Events
// @Produce      json
// @Param        id   path      int  true  "ID тура"
// @Success      200  {object}  models.TourSummary
// @Router       /api/events/{id}/summary [get]
func (h *EventHandler) Summary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	overrides, err := h.groupings(c, id)
	if err != nil {
		respondError(c, "summary", err)
		return
	}
	s, err := h.Summaries.Build(c.Request.Context(), id, overrides)
	if err != nil {
		respondError(c, "summary", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *EventHandler) ExportSummary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	overrides, err := h.groupings(c, id)
	if err != nil {
		respondError(c, "summary", err)
		return
	}
	data, name, err := h.Summaries.Export(c.Request.Context(), id, overrides)
	if err != nil {
		respondError(c, "summary", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
