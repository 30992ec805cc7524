package pdf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator: интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateContract(data ContractData) (string, error)
	GenerateBookingSheet(data BookingData) (string, error)
}

// DocumentGenerator пишет PDF в RootDir и возвращает полный путь к файлу.
type DocumentGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // TTF с кириллицей; пусто: встроенный Helvetica
	fontName string
}

type ContractData struct {
	LeadID      int64
	Signatory   string // основной турист
	Passport    string
	Phone       string
	TourName    string
	Country     string
	StartDate   string
	EndDate     string
	Cities      []string
	Tourists    []string
	Cost        float64
	Advance     float64
	Remainder   float64
	Currency    string
	CreatedAt   time.Time
	CompanyName string
	Filename    string // имя файла (без путей); если пусто: сгенерируем
}

type BookingRow struct {
	FullName  string
	Latin     string
	BirthDate string
	Passport  string
	Expires   string
	Primary   bool
}

type BookingData struct {
	LeadID    int64
	Client    string
	Phone     string
	Email     string
	TourName  string
	StartDate string
	EndDate   string
	Cities    []string
	Rows      []BookingRow
	CreatedAt time.Time
	Filename  string
}

func NewDocumentGenerator(rootDir, fontPath string) *DocumentGenerator {
	g := &DocumentGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
	if _, err := os.Stat(fontPath); fontPath == "" || err != nil {
		log.Printf("[pdf] font %q not available, falling back to Helvetica", fontPath)
		g.FontPath = ""
		g.fontName = "Helvetica"
	}
	return g
}

func money(v float64, currency string) string {
	return fmt.Sprintf("%.2f %s", v, currency)
}

func (g *DocumentGenerator) newPDF(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("TurCRM", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addUTF8Font(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10, fmt.Sprintf("Стр. %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return pdf
}

func (g *DocumentGenerator) GenerateContract(data ContractData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("contract_lead_%d.pdf", data.LeadID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := g.newPDF(fmt.Sprintf("Договор №%d", data.LeadID))

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "ДОГОВОР НА ТУРИСТСКОЕ ОБСЛУЖИВАНИЕ", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("№ TUR-%06d  от  %s", data.LeadID, data.CreatedAt.Format("02.01.2006")), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Стороны")
	company := data.CompanyName
	if company == "" {
		company = "Туроператор"
	}
	g.kvLine(pdf, "Исполнитель", company)
	g.kvLine(pdf, "Заказчик", data.Signatory)
	if data.Passport != "" {
		g.kvLine(pdf, "Паспорт", data.Passport)
	}
	if data.Phone != "" {
		g.kvLine(pdf, "Телефон", data.Phone)
	}
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Тур")
	g.kvLine(pdf, "Название", data.TourName)
	if data.Country != "" {
		g.kvLine(pdf, "Страна", data.Country)
	}
	g.kvLine(pdf, "Даты", data.StartDate+" — "+data.EndDate)
	if len(data.Cities) > 0 {
		g.kvLine(pdf, "Маршрут", strings.Join(data.Cities, " → "))
	}
	pdf.Ln(1)
	g.sectionTitle(pdf, "Туристы")
	for i, name := range data.Tourists {
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, name), "", "L", false)
	}
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Стоимость")
	g.kvLine(pdf, "Стоимость тура", money(data.Cost, data.Currency))
	g.kvLine(pdf, "Предоплата", money(data.Advance, data.Currency))
	g.kvLine(pdf, "Остаток", money(data.Remainder, data.Currency))
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "", 11)
	terms := []string{
		"1. Исполнитель обязуется организовать тур по маршруту и в сроки, указанные выше.",
		"2. Заказчик оплачивает остаток стоимости не позднее чем за 14 дней до начала тура.",
		"3. Заказчик отвечает за достоверность паспортных данных всех туристов.",
		"4. Споры разрешаются путём переговоров, при недостижении согласия — в судебном порядке.",
	}
	for _, t := range terms {
		pdf.MultiCell(0, 6, t, "", "L", false)
	}
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Подписи")
	pdf.Ln(6)
	lineY := pdf.GetY()
	pdf.CellFormat(80, 6, "Исполнитель", "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(80, 6, "Заказчик", "", 1, "L", false, 0, "")
	pdf.SetLineWidth(0.3)
	pdf.Line(20, lineY+14, 100, lineY+14)
	pdf.Line(130, lineY+14, 190, lineY+14)
	pdf.SetY(lineY + 16)
	pdf.SetX(130)
	pdf.Cell(60, 5, data.Signatory)

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func (g *DocumentGenerator) GenerateBookingSheet(data BookingData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("booking_lead_%d.pdf", data.LeadID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := g.newPDF(fmt.Sprintf("Лист бронирования №%d", data.LeadID))
	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "ЛИСТ БРОНИРОВАНИЯ", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Заявка #%d, %s", data.LeadID, data.CreatedAt.Format("02.01.2006")), "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.kvLine(pdf, "Клиент", data.Client)
	if data.Phone != "" {
		g.kvLine(pdf, "Телефон", data.Phone)
	}
	if data.Email != "" {
		g.kvLine(pdf, "Email", data.Email)
	}
	g.kvLine(pdf, "Тур", data.TourName)
	g.kvLine(pdf, "Даты", data.StartDate+" — "+data.EndDate)
	if len(data.Cities) > 0 {
		g.kvLine(pdf, "Города", strings.Join(data.Cities, ", "))
	}
	pdf.Ln(3)

	widths := []float64{8, 50, 40, 22, 28, 22}
	head := []string{"№", "ФИО", "Латиницей", "Рожд.", "Паспорт", "До"}
	pdf.SetFont(g.fontName, "B", 9)
	for i, h := range head {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(g.fontName, "", 9)
	for i, r := range data.Rows {
		name := r.FullName
		if r.Primary {
			name += " *"
		}
		cells := []string{fmt.Sprintf("%d", i+1), name, r.Latin, r.BirthDate, r.Passport, r.Expires}
		for j, v := range cells {
			pdf.CellFormat(widths[j], 7, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 8)
	pdf.MultiCell(0, 5, "* основной турист (подписант договора)", "", "L", false)

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *DocumentGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *DocumentGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *DocumentGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
