package services

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"turcrm/internal/models"
	"turcrm/internal/pdf"
	"turcrm/internal/repositories"
)

// DocumentStore: учёт сгенерированных файлов (repositories.DocumentRepository).
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) (int64, error)
	ListByLead(ctx context.Context, leadID int64) ([]*models.Document, error)
}

type DocumentService struct {
	DocRepo  DocumentStore
	LeadRepo repositories.LeadRepository
	Events   repositories.EventRepository
	Tourists repositories.TouristRepository

	FilesRoot   string        // корень хранения файлов (cfg.Files.RootDir)
	PDFGen      pdf.Generator // генератор PDF (internal/pdf)
	CompanyName string

	now func() time.Time
}

func NewDocumentService(
	docRepo DocumentStore,
	leadRepo repositories.LeadRepository,
	events repositories.EventRepository,
	tourists repositories.TouristRepository,
	filesRoot string,
	pdfGen pdf.Generator,
	companyName string,
) *DocumentService {
	return &DocumentService{
		DocRepo:     docRepo,
		LeadRepo:    leadRepo,
		Events:      events,
		Tourists:    tourists,
		FilesRoot:   filesRoot,
		PDFGen:      pdfGen,
		CompanyName: companyName,
		now:         time.Now,
	}
}

type documentSource struct {
	lead     *models.Lead
	event    *models.Event
	tourists []*models.Tourist
	primary  *models.Tourist
}

func (s *DocumentService) load(ctx context.Context, leadID int64) (*documentSource, error) {
	lead, err := s.LeadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	if lead.EventID == nil {
		return nil, ErrLeadHasNoEvent
	}
	event, err := s.Events.GetByID(ctx, *lead.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	tourists, err := s.Tourists.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	src := &documentSource{lead: lead, event: event, tourists: tourists}
	for _, t := range tourists {
		if t.IsPrimary {
			src.primary = t
			break
		}
	}
	return src, nil
}

func (src *documentSource) cities() []string {
	if len(src.lead.SelectedCities) > 0 {
		return src.lead.SelectedCities
	}
	return src.event.Cities
}

func passportLine(t *models.Tourist) string {
	return strings.TrimSpace(t.PassportSeries + " " + t.PassportNumber)
}

// Contract формирует договор; подписант: основной турист заявки.
func (s *DocumentService) Contract(ctx context.Context, leadID int64, userID int) (*models.Document, error) {
	src, err := s.load(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if src.primary == nil {
		return nil, ErrNoPrimaryTourist
	}

	names := make([]string, 0, len(src.tourists))
	for _, t := range src.tourists {
		names = append(names, t.FullName())
	}
	path, err := s.PDFGen.GenerateContract(pdf.ContractData{
		LeadID:      leadID,
		Signatory:   src.primary.FullName(),
		Passport:    passportLine(src.primary),
		Phone:       firstNonEmpty(src.primary.Phone, src.lead.Phone),
		TourName:    src.event.Name,
		Country:     src.event.Country,
		StartDate:   src.event.StartDate,
		EndDate:     src.event.EndDate,
		Cities:      src.cities(),
		Tourists:    names,
		Cost:        src.lead.Cost,
		Advance:     src.lead.Advance,
		Remainder:   src.lead.Remainder,
		Currency:    firstNonEmpty(src.lead.Currency, src.event.Currency),
		CreatedAt:   s.now(),
		CompanyName: s.CompanyName,
	})
	if err != nil {
		return nil, err
	}
	return s.record(ctx, leadID, models.DocContract, path, userID)
}

func (s *DocumentService) BookingSheet(ctx context.Context, leadID int64, userID int) (*models.Document, error) {
	src, err := s.load(ctx, leadID)
	if err != nil {
		return nil, err
	}
	rows := make([]pdf.BookingRow, 0, len(src.tourists))
	for _, t := range src.tourists {
		rows = append(rows, pdf.BookingRow{
			FullName:  t.FullName(),
			Latin:     strings.TrimSpace(t.LastNameLatin + " " + t.FirstNameLatin),
			BirthDate: deref(t.BirthDate),
			Passport:  passportLine(t),
			Expires:   deref(t.PassportExpires),
			Primary:   t.IsPrimary,
		})
	}
	path, err := s.PDFGen.GenerateBookingSheet(pdf.BookingData{
		LeadID:    leadID,
		Client:    src.lead.FullName(),
		Phone:     src.lead.Phone,
		Email:     src.lead.Email,
		TourName:  src.event.Name,
		StartDate: src.event.StartDate,
		EndDate:   src.event.EndDate,
		Cities:    src.cities(),
		Rows:      rows,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.record(ctx, leadID, models.DocBookingSheet, path, userID)
}

func (s *DocumentService) record(ctx context.Context, leadID int64, docType, path string, userID int) (*models.Document, error) {
	doc := &models.Document{
		LeadID:    leadID,
		DocType:   docType,
		FilePath:  filepath.Base(path),
		CreatedBy: userID,
	}
	if _, err := s.DocRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	log.Printf("[documents][%s] lead=%d file=%s", docType, leadID, doc.FilePath)
	return doc, nil
}

func (s *DocumentService) ListByLead(ctx context.Context, leadID int64) ([]*models.Document, error) {
	return s.DocRepo.ListByLead(ctx, leadID)
}

// AbsPath: путь файла документа на диске.
func (s *DocumentService) AbsPath(doc *models.Document) string {
	return filepath.Join(s.FilesRoot, filepath.Base(doc.FilePath))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
