package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"turcrm/internal/models"
)

// DocumentGenerator: *services.DocumentService.
type DocumentGenerator interface {
	Contract(ctx context.Context, leadID int64, userID int) (*models.Document, error)
	BookingSheet(ctx context.Context, leadID int64, userID int) (*models.Document, error)
	ListByLead(ctx context.Context, leadID int64) ([]*models.Document, error)
	AbsPath(doc *models.Document) string
}

type DocumentHandler struct {
	Service DocumentGenerator
}

func NewDocumentHandler(service DocumentGenerator) *DocumentHandler {
	return &DocumentHandler{Service: service}
}

// GET /api/leads/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	docs, err := h.Service.ListByLead(c.Request.Context(), leadID)
	if err != nil {
		respondError(c, "documents", err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GET /api/leads/:id/documents/contract
func (h *DocumentHandler) Contract(c *gin.Context) {
	h.serve(c, h.Service.Contract)
}

// GET /api/leads/:id/documents/booking-sheet
func (h *DocumentHandler) BookingSheet(c *gin.Context) {
	h.serve(c, h.Service.BookingSheet)
}

// serve генерирует документ заново и отдаёт его вложением.
func (h *DocumentHandler) serve(c *gin.Context, generate func(context.Context, int64, int) (*models.Document, error)) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := getUserAndRole(c)
	doc, err := generate(c.Request.Context(), leadID, userID)
	if err != nil {
		respondError(c, "documents", err)
		return
	}
	c.FileAttachment(h.Service.AbsPath(doc), doc.FilePath)
}
