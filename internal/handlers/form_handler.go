package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"turcrm/internal/models"
	"turcrm/internal/services"
)

type FormHandler struct {
	Service services.FormService
}

func NewFormHandler(service services.FormService) *FormHandler {
	return &FormHandler{Service: service}
}

func (h *FormHandler) List(c *gin.Context) {
	forms, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, forms)
}

func (h *FormHandler) Create(c *gin.Context) {
	var in models.FormPatch
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *FormHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FormHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.FormPatch
	if !bindJSON(c, &patch) {
		return
	}
	f, err := h.Service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FormHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "form", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FormHandler) AddField(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.FieldPatch
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.Service.AddField(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *FormHandler) UpdateField(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fieldID, ok := paramID(c, "fieldId")
	if !ok {
		return
	}
	var patch models.FieldPatch
	if !bindJSON(c, &patch) {
		return
	}
	f, err := h.Service.UpdateField(c.Request.Context(), id, fieldID, patch)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FormHandler) DeleteField(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fieldID, ok := paramID(c, "fieldId")
	if !ok {
		return
	}
	if err := h.Service.DeleteField(c.Request.Context(), id, fieldID); err != nil {
		respondError(c, "form", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	FieldIDs []int64 `json:"fieldIds" binding:"required"`
}

// @Summary      Порядок полей формы
// @Description  Полная перестановка id полей, сохраняется одним запросом
// @Tags         Forms
// @Accept       json
// @Produce      json
// @Param        id     path      int             true  "ID формы"
// @Param        order  body      reorderRequest  true  "Новый порядок"
// @Success      200    {array}   models.FormField
// @Router       /api/forms/{id}/fields/order [put]
func (h *FormHandler) ReorderFields(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	fields, err := h.Service.ReorderFields(c.Request.Context(), id, req.FieldIDs)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, fields)
}

func (h *FormHandler) Submissions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	subs, err := h.Service.ListSubmissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// ---- public (без токена)

func (h *FormHandler) GetPublic(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := h.Service.GetPublic(c.Request.Context(), id)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// @Summary      Отправить публичную форму
// @Description  Тело содержит значения полей по key (или {"data": {...}}). Создаёт заявку
// @Tags         Public
// @Accept       json
// @Produce      json
// @Param        id    path      int  true  "ID формы"
// @Success      201   {object}  models.FormSubmission
// @Failure      422   {object}  map[string]interface{}
// @Router       /api/public/forms/{id}/submit [post]
func (h *FormHandler) Submit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body map[string]any
	if !bindJSON(c, &body) {
		return
	}
	if inner, ok := body["data"].(map[string]any); ok && len(body) == 1 {
		body = inner
	}
	sub, err := h.Service.SubmitPublic(c.Request.Context(), id, body)
	if err != nil {
		respondError(c, "form", err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}
