package models

// GroupingOverrides: ручная группировка туристов в сводке по туру.
// Хранится как пользовательская настройка, на сервере не влияет ни на что, кроме сводки.
type GroupingOverrides struct {
	Manual    map[string][]int64 `json:"manual"`    // имя группы -> туристы
	Ungrouped []int64            `json:"ungrouped"` // исключены из автогруппировки по заявке
}

type GroupKind string

const (
	GroupManual GroupKind = "manual"
	GroupDeal   GroupKind = "deal"
	GroupSingle GroupKind = "single"
)

type SummaryRow struct {
	Tourist      EventTourist      `json:"tourist"`
	Visits       map[string]*Visit `json:"visits"` // город -> визит
	Completeness float64           `json:"completeness"`
}

type SummaryGroup struct {
	Key          string         `json:"key"`
	Label        string         `json:"label"`
	Kind         GroupKind      `json:"kind"`
	LeadID       *int64         `json:"leadId,omitempty"`
	Rows         []*SummaryRow  `json:"rows"`
	RowSpans     map[string]int `json:"rowSpans"` // город -> число строк с визитом
	Completeness float64        `json:"completeness"`
}

type TourSummary struct {
	Event           *Event          `json:"event"`
	Cities          []string        `json:"cities"`
	Groups          []*SummaryGroup `json:"groups"`
	TotalTourists   int             `json:"totalTourists"`
	AvgCompleteness float64         `json:"avgCompleteness"`
}
