package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"turcrm/internal/models"
	"turcrm/internal/services"
)

type LeadHandler struct {
	Service services.LeadService
}

func NewLeadHandler(service services.LeadService) *LeadHandler {
	return &LeadHandler{Service: service}
}

// leadFilter разбирает ?status&eventId&archived&q.
// archived: "true" только архив, "all" все, иначе только активные.
func leadFilter(c *gin.Context) (models.LeadFilter, bool) {
	var f models.LeadFilter
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st := models.LeadStatus(s)
		f.Status = &st
	}
	if s := c.Query("eventId"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid eventId"})
			return f, false
		}
		f.EventID = &id
	}
	switch c.Query("archived") {
	case "true", "1":
		f.Archived = true
	case "all":
		f.IncludeArchived = true
	}
	f.Query = strings.TrimSpace(c.Query("q"))
	return f, true
}

// @Summary      Список заявок
// @Tags         Leads
// @Produce      json
// @Param        status    query  string  false  "new|contacted|qualified|converted|lost"
// @Param        eventId   query  int     false  "тур"
// @Param        archived  query  string  false  "true|all"
// @Param        q         query  string  false  "поиск по имени, телефону, email"
// @Param        page      query  int     false  "страница с 1"
// @Param        size      query  int     false  "размер страницы"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	f, ok := leadFilter(c)
	if !ok {
		return
	}
	page, size := pagination(c)
	f.Limit, f.Offset = size, (page-1)*size

	leads, total, err := h.Service.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": leads, "total": total, "page": page, "size": size})
}

// @Summary      Канбан-доска
// @Tags         Leads
// @Produce      json
// @Success      200  {array}  models.BoardColumn
// @Router       /api/leads/board [get]
func (h *LeadHandler) Board(c *gin.Context) {
	f, ok := leadFilter(c)
	if !ok {
		return
	}
	cols, err := h.Service.Board(c.Request.Context(), f)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, cols)
}

func (h *LeadHandler) Stats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Создать заявку
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Param        lead  body      models.LeadPatch  true  "Заявка"
// @Success      201   {object}  models.Lead
// @Failure      422   {object}  map[string]interface{}
// @Router       /api/leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var in models.LeadPatch
	if !bindJSON(c, &in) {
		return
	}
	// владельца проставляем из токена (входящий ownerId игнорируем)
	userID, _ := getUserAndRole(c)
	in.OwnerID = nil

	lead, err := h.Service.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// @Summary      Изменить заявку
// @Description  Частичное обновление; status с полями исхода проходит через машину статусов
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Param        id    path      int               true  "ID заявки"
// @Param        lead  body      models.LeadPatch  true  "Изменённые поля"
// @Success      200   {object}  models.Lead
// @Failure      422   {object}  map[string]interface{}
// @Router       /api/leads/{id} [patch]
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.LeadPatch
	if !bindJSON(c, &patch) {
		return
	}
	lead, err := h.Service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "lead", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Сменить статус
// @Description  Перенос карточки на доске. Для lost обязателен outcomeType
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Param        id      path      int                  true  "ID заявки"
// @Param        change  body      models.StatusChange  true  "Новый статус"
// @Success      200     {object}  models.Lead
// @Failure      422     {object}  map[string]interface{}
// @Router       /api/leads/{id}/status [post]
func (h *LeadHandler) ChangeStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var ch models.StatusChange
	if !bindJSON(c, &ch) {
		return
	}
	lead, err := h.Service.ChangeStatus(c.Request.Context(), id, ch)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) Archive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.Service.Archive(c.Request.Context(), id)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) Unarchive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.Service.Unarchive(c.Request.Context(), id)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

type toggleCityRequest struct {
	City string `json:"city" binding:"required"`
}

func (h *LeadHandler) ToggleCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req toggleCityRequest
	if !bindJSON(c, &req) {
		return
	}
	lead, err := h.Service.ToggleCity(c.Request.Context(), id, req.City)
	if err != nil {
		respondError(c, "lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}
