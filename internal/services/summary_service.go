package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"turcrm/internal/metrics"
	"turcrm/internal/models"
	"turcrm/internal/repositories"
)

// SummaryCache: кэш готовых сводок; key уже включает хэш группировки.
type SummaryCache interface {
	// Get отдаёт и версию тура; Set пишет строго под неё.
	Get(ctx context.Context, eventID int64, key string) (*models.TourSummary, int64, bool)
	Set(ctx context.Context, eventID, version int64, key string, s *models.TourSummary)
	Invalidate(ctx context.Context, eventID int64)
}

type SummaryService interface {
	Build(ctx context.Context, eventID int64, overrides models.GroupingOverrides) (*models.TourSummary, error)
	Export(ctx context.Context, eventID int64, overrides models.GroupingOverrides) ([]byte, string, error)

	CreateVisit(ctx context.Context, touristID int64, in models.VisitPatch) (*models.Visit, error)
	UpdateVisit(ctx context.Context, touristID, visitID int64, patch models.VisitPatch) (*models.Visit, error)
	DeleteVisit(ctx context.Context, touristID, visitID int64) error
}

type summaryService struct {
	events   repositories.EventRepository
	leads    repositories.LeadRepository
	tourists repositories.TouristRepository
	visits   repositories.VisitRepository
	cache    SummaryCache
	metrics  *metrics.CRMMetrics
	feed     changeFeed
}

func NewSummaryService(
	events repositories.EventRepository,
	leads repositories.LeadRepository,
	tourists repositories.TouristRepository,
	visits repositories.VisitRepository,
	cache SummaryCache,
	m *metrics.CRMMetrics,
	listeners ...ChangeListener,
) SummaryService {
	return &summaryService{
		events: events, leads: leads, tourists: tourists, visits: visits,
		cache: cache, metrics: m, feed: listeners,
	}
}

func overridesKey(o models.GroupingOverrides) string {
	b, _ := json.Marshal(o)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

func (s *summaryService) Build(ctx context.Context, eventID int64, overrides models.GroupingOverrides) (*models.TourSummary, error) {
	key := overridesKey(overrides)
	var version int64
	if s.cache != nil {
		cached, ver, ok := s.cache.Get(ctx, eventID, key)
		if ok {
			s.metrics.ObserveCache(true)
			return cached, nil
		}
		s.metrics.ObserveCache(false)
		version = ver
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	tourists, err := s.tourists.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	visits, err := s.visits.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summary := BuildSummary(event, tourists, visits, overrides)
	if s.cache != nil {
		s.cache.Set(ctx, eventID, version, key, summary)
	}
	return summary, nil
}

// passportFields: что нужно для визы/билетов; по ним считается заполненность.
var passportFields = []func(t *models.Tourist) bool{
	func(t *models.Tourist) bool { return t.LastNameLatin != "" },
	func(t *models.Tourist) bool { return t.FirstNameLatin != "" },
	func(t *models.Tourist) bool { return t.BirthDate != nil },
	func(t *models.Tourist) bool { return t.PassportNumber != "" },
	func(t *models.Tourist) bool { return t.PassportExpires != nil },
	func(t *models.Tourist) bool { return t.Citizenship != "" },
}

func Completeness(t *models.Tourist) float64 {
	filled := 0
	for _, ok := range passportFields {
		if ok(t) {
			filled++
		}
	}
	return round2(float64(filled) / float64(len(passportFields)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildSummary раскладывает туристов по группам: сначала ручные группы,
// затем явно разгруппированные (по одному), остальные по заявке.
func BuildSummary(event *models.Event, tourists []*models.EventTourist, visits []*models.Visit, o models.GroupingOverrides) *models.TourSummary {
	byID := make(map[int64]*models.EventTourist, len(tourists))
	for _, t := range tourists {
		byID[t.ID] = t
	}
	visitsBy := make(map[int64]map[string]*models.Visit)
	for _, v := range visits {
		if !event.HasCity(v.City) {
			continue
		}
		m := visitsBy[v.TouristID]
		if m == nil {
			m = make(map[string]*models.Visit)
			visitsBy[v.TouristID] = m
		}
		if _, dup := m[v.City]; !dup {
			m[v.City] = v
		}
	}

	assigned := make(map[int64]bool, len(tourists))
	groups := []*models.SummaryGroup{}

	newGroup := func(key, label string, kind models.GroupKind, members []*models.EventTourist) *models.SummaryGroup {
		g := &models.SummaryGroup{Key: key, Label: label, Kind: kind, RowSpans: map[string]int{}}
		for _, t := range members {
			assigned[t.ID] = true
			row := &models.SummaryRow{
				Tourist:      *t,
				Visits:       visitsBy[t.ID],
				Completeness: Completeness(&t.Tourist),
			}
			if row.Visits == nil {
				row.Visits = map[string]*models.Visit{}
			}
			g.Rows = append(g.Rows, row)
			g.Completeness += row.Completeness
			for city := range row.Visits {
				g.RowSpans[city]++
			}
		}
		if n := len(g.Rows); n > 0 {
			g.Completeness = round2(g.Completeness / float64(n))
		}
		return g
	}

	names := make([]string, 0, len(o.Manual))
	for name := range o.Manual {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var members []*models.EventTourist
		for _, id := range o.Manual[name] {
			if t, ok := byID[id]; ok && !assigned[id] {
				members = append(members, t)
				assigned[id] = true
			}
		}
		if len(members) > 0 {
			groups = append(groups, newGroup("manual:"+name, name, models.GroupManual, members))
		}
	}

	for _, id := range o.Ungrouped {
		t, ok := byID[id]
		if !ok || assigned[id] {
			continue
		}
		groups = append(groups, newGroup(fmt.Sprintf("single:%d", id), t.FullName(), models.GroupSingle, []*models.EventTourist{t}))
	}

	var leadOrder []int64
	byLead := make(map[int64][]*models.EventTourist)
	for _, t := range tourists {
		if assigned[t.ID] {
			continue
		}
		if _, seen := byLead[t.LeadID]; !seen {
			leadOrder = append(leadOrder, t.LeadID)
		}
		byLead[t.LeadID] = append(byLead[t.LeadID], t)
	}
	for _, leadID := range leadOrder {
		members := byLead[leadID]
		label := members[0].LeadName
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("Заявка #%d", leadID)
		}
		g := newGroup(fmt.Sprintf("deal:%d", leadID), label, models.GroupDeal, members)
		g.LeadID = ptr(leadID)
		groups = append(groups, g)
	}

	total := 0
	sum := 0.0
	for _, g := range groups {
		for _, r := range g.Rows {
			total++
			sum += r.Completeness
		}
	}
	summary := &models.TourSummary{
		Event:         event,
		Cities:        event.Cities,
		Groups:        groups,
		TotalTourists: total,
	}
	if total > 0 {
		summary.AvgCompleteness = round2(sum / float64(total))
	}
	return summary
}

// VisitCell собирает многострочную ячейку города (даты, отель, статус).
func VisitCell(v *models.Visit) string {
	if v == nil {
		return ""
	}
	var lines []string
	short := func(d *string) string {
		if d == nil {
			return "?"
		}
		if t, err := time.Parse(dateLayout, *d); err == nil {
			return t.Format("02.01")
		}
		return *d
	}
	if v.ArrivalDate != nil || v.DepartureDate != nil {
		lines = append(lines, short(v.ArrivalDate)+"–"+short(v.DepartureDate))
	}
	if v.Hotel != "" {
		lines = append(lines, v.Hotel)
	}
	if v.Status != "" {
		lines = append(lines, v.Status)
	}
	return strings.Join(lines, "\n")
}

func (s *summaryService) Export(ctx context.Context, eventID int64, overrides models.GroupingOverrides) ([]byte, string, error) {
	summary, err := s.Build(ctx, eventID, overrides)
	if err != nil {
		return nil, "", err
	}
	data, err := ExportSummary(summary)
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("tour_%d_summary_%s.xlsx", eventID, time.Now().Format("20060102"))
	log.Printf("[summary][export] event=%d groups=%d tourists=%d", eventID, len(summary.Groups), summary.TotalTourists)
	return data, name, nil
}

// ExportSummary сериализует сводку в xlsx: одна строка на туриста,
// ячейка группы объединяется на все её строки.
func ExportSummary(summary *models.TourSummary) ([]byte, error) {
	const sheet = "Сводка"
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	header := []string{"Группа", "№", "ФИО", "ФИО (лат.)", "Паспорт", "Действует до", "Заявка", "Заполнено"}
	header = append(header, summary.Cities...)
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", lastCol, headStyle); err != nil {
		return nil, err
	}

	row := 2
	n := 0
	for _, g := range summary.Groups {
		first := row
		for _, r := range g.Rows {
			n++
			t := r.Tourist
			values := []any{
				g.Label,
				n,
				t.FullName(),
				strings.TrimSpace(t.LastNameLatin + " " + t.FirstNameLatin),
				strings.TrimSpace(t.PassportSeries + " " + t.PassportNumber),
				deref(t.PassportExpires),
				t.LeadName,
				fmt.Sprintf("%.0f%%", r.Completeness*100),
			}
			for _, city := range summary.Cities {
				values = append(values, VisitCell(r.Visits[city]))
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
		if row-1 > first {
			top, _ := excelize.CoordinatesToCellName(1, first)
			bottom, _ := excelize.CoordinatesToCellName(1, row-1)
			if err := f.MergeCell(sheet, top, bottom); err != nil {
				return nil, err
			}
		}
	}
	if row > 2 {
		lastCell, _ := excelize.CoordinatesToCellName(len(header), row-1)
		if err := f.SetCellStyle(sheet, "A2", lastCell, cellStyle); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "C", "D", 28)
	if len(summary.Cities) > 0 {
		from, _ := excelize.ColumnNumberToName(9)
		to, _ := excelize.ColumnNumberToName(8 + len(summary.Cities))
		_ = f.SetColWidth(sheet, from, to, 22)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *summaryService) touristEvent(ctx context.Context, touristID int64) (*models.Tourist, *models.Event, error) {
	t, err := s.tourists.GetByID(ctx, touristID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, ErrTouristNotFound
	}
	lead, err := s.leads.GetByID(ctx, t.LeadID)
	if err != nil {
		return nil, nil, err
	}
	if lead == nil || lead.EventID == nil {
		return t, nil, nil
	}
	e, err := s.events.GetByID(ctx, *lead.EventID)
	if err != nil {
		return nil, nil, err
	}
	return t, e, nil
}

func applyVisit(v *models.Visit, p models.VisitPatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setDate := func(dst **string, src *string) {
		if src == nil {
			return
		}
		if d := strings.TrimSpace(*src); d != "" {
			*dst = &d
		} else {
			*dst = nil
		}
	}
	set(&v.City, p.City)
	setDate(&v.ArrivalDate, p.ArrivalDate)
	setDate(&v.DepartureDate, p.DepartureDate)
	set(&v.Hotel, p.Hotel)
	set(&v.Status, p.Status)
	set(&v.Notes, p.Notes)
}

func validateVisit(v *models.Visit, event *models.Event) error {
	verr := &ValidationError{}
	if v.City == "" {
		verr.add("city", "required")
	} else if event != nil && !event.HasCity(v.City) {
		verr.add("city", "not on the event route")
	}
	for key, d := range map[string]*string{"arrivalDate": v.ArrivalDate, "departureDate": v.DepartureDate} {
		if d == nil {
			continue
		}
		if _, err := time.Parse(dateLayout, *d); err != nil {
			verr.add(key, "must be YYYY-MM-DD")
		}
	}
	if v.ArrivalDate != nil && v.DepartureDate != nil && *v.DepartureDate < *v.ArrivalDate {
		verr.add("departureDate", "must not be before arrival")
	}
	return verr.err()
}

func (s *summaryService) visitChanged(ctx context.Context, t *models.Tourist, event *models.Event) {
	ev := models.ChangeEvent{Type: models.ChangeVisit, LeadID: t.LeadID}
	if event != nil {
		ev.EventID = ptr(event.ID)
	}
	s.feed.emit(ctx, ev)
}

func (s *summaryService) CreateVisit(ctx context.Context, touristID int64, in models.VisitPatch) (*models.Visit, error) {
	t, event, err := s.touristEvent(ctx, touristID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrLeadHasNoEvent
	}
	v := &models.Visit{TouristID: touristID}
	applyVisit(v, in)
	if err := validateVisit(v, event); err != nil {
		return nil, err
	}
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, err
	}
	s.visitChanged(ctx, t, event)
	return v, nil
}

func (s *summaryService) visit(ctx context.Context, touristID, visitID int64) (*models.Visit, error) {
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v == nil || v.TouristID != touristID {
		return nil, ErrVisitNotFound
	}
	return v, nil
}

func (s *summaryService) UpdateVisit(ctx context.Context, touristID, visitID int64, patch models.VisitPatch) (*models.Visit, error) {
	t, event, err := s.touristEvent(ctx, touristID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrLeadHasNoEvent
	}
	v, err := s.visit(ctx, touristID, visitID)
	if err != nil {
		return nil, err
	}
	applyVisit(v, patch)
	if err := validateVisit(v, event); err != nil {
		return nil, err
	}
	if err := s.visits.Update(ctx, v); err != nil {
		return nil, err
	}
	s.visitChanged(ctx, t, event)
	return v, nil
}

func (s *summaryService) DeleteVisit(ctx context.Context, touristID, visitID int64) error {
	t, event, err := s.touristEvent(ctx, touristID)
	if err != nil {
		return err
	}
	if _, err := s.visit(ctx, touristID, visitID); err != nil {
		return err
	}
	if err := s.visits.Delete(ctx, visitID); err != nil {
		return err
	}
	s.visitChanged(ctx, t, event)
	return nil
}
