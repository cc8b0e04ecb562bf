package service

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"quiz-session-backend/internal/model"
	"quiz-session-backend/internal/quiz"
)

// ReportService renders the review of a finished session.
type ReportService interface {
	ReviewPDF(summary model.SessionSummary) ([]byte, error)
}

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var defaultBoldFont []byte

const reportFont = "review"

// ReportOptions configures the review PDF. Font and BoldFont are TrueType files;
// the embedded DejaVu faces are used when they are empty. DejaVu has no CJK
// glyphs, so banks written in Japanese need a font such as Noto Sans JP here.
type ReportOptions struct {
	Title    string
	Font     []byte
	BoldFont []byte
}

type reportService struct {
	title    string
	font     []byte
	boldFont []byte
}

func NewReportService(opts ReportOptions) ReportService {
	s := &reportService{title: opts.Title, font: opts.Font, boldFont: opts.BoldFont}
	if s.title == "" {
		s.title = "Quiz Review"
	}
	if len(s.font) == 0 {
		s.font, s.boldFont = defaultFont, defaultBoldFont
	}
	if len(s.boldFont) == 0 {
		s.boldFont = s.font
	}
	return s
}

var bandColors = map[quiz.Band][3]int{
	quiz.BandGreen: {0x27, 0xAE, 0x60},
	quiz.BandAmber: {0xF5, 0xA6, 0x23},
	quiz.BandRed:   {0xE7, 0x4C, 0x3C},
}

func (s *reportService) ReviewPDF(summary model.SessionSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(reportFont, "", s.font)
	pdf.AddUTF8FontFromBytes(reportFont, "B", s.boldFont)
	pdf.SetTitle(s.title, true)
	pdf.AddPage()

	pdf.SetFont(reportFont, "B", 18)
	pdf.Cell(0, 10, s.title)
	pdf.Ln(14)

	// Score bar in the chart colour for this percentage.
	c := bandColors[quiz.BandFor(summary.Percent)]
	pdf.SetFillColor(0xE8, 0xED, 0xF2)
	pdf.Rect(10, pdf.GetY(), 190, 8, "F")
	pdf.SetFillColor(c[0], c[1], c[2])
	pdf.Rect(10, pdf.GetY(), 190*float64(summary.Percent)/100, 8, "F")
	pdf.Ln(12)

	pdf.SetFont(reportFont, "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("%d%%  (%d / %d)  %s", summary.Percent, summary.CorrectCount, summary.Total, summary.Tier))
	pdf.Ln(14)

	if len(summary.WrongAnswers) == 0 {
		pdf.SetFont(reportFont, "", 12)
		pdf.Cell(0, 8, "All answers correct.")
	}

	for i, a := range summary.WrongAnswers {
		pdf.SetFont(reportFont, "B", 12)
		pdf.MultiCell(0, 7, fmt.Sprintf("Q%d. %s", i+1, a.QuestionText), "", "L", false)
		pdf.SetFont(reportFont, "", 11)
		pdf.SetTextColor(0xE7, 0x4C, 0x3C)
		pdf.MultiCell(0, 6, "Your answer: "+a.UserAnswerText, "", "L", false)
		pdf.SetTextColor(0x27, 0xAE, 0x60)
		pdf.MultiCell(0, 6, "Correct: "+a.CorrectAnswerText, "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		if a.Explanation != "" {
			pdf.MultiCell(0, 6, a.Explanation, "", "L", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render review PDF: %w", err)
	}
	return buf.Bytes(), nil
}
