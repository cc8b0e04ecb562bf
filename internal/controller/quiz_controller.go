package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"quiz-session-backend/internal/quiz"
	"quiz-session-backend/internal/service"
	"quiz-session-backend/utilities"
)

type QuizController struct {
	QuizService   service.QuizService
	ReportService service.ReportService
}

func NewQuizController(quizService service.QuizService, reportService service.ReportService) *QuizController {
	return &QuizController{QuizService: quizService, ReportService: reportService}
}

// Options handles GET /quiz/options
func (qc *QuizController) Options(c *gin.Context) {
	c.JSON(http.StatusOK, qc.QuizService.Options())
}

// StartSession handles POST /sessions
func (qc *QuizController) StartSession(c *gin.Context) {
	var req struct {
		Count *int `json:"count"`
	}
	// An empty body starts a session with the default count.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
	}
	info, err := qc.QuizService.StartSession(req.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// CurrentQuestion handles GET /sessions/:id/question
func (qc *QuizController) CurrentQuestion(c *gin.Context) {
	view, err := qc.QuizService.CurrentQuestion(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitAnswer handles POST /sessions/:id/answer
func (qc *QuizController) SubmitAnswer(c *gin.Context) {
	var req struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	feedback, err := qc.QuizService.SubmitAnswer(c.Param("id"), *req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// Summary handles GET /sessions/:id/summary
func (qc *QuizController) Summary(c *gin.Context) {
	summary, err := qc.QuizService.Summary(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"band":    quiz.BandFor(summary.Percent),
	})
}

// ReviewPDF handles GET /sessions/:id/review.pdf
func (qc *QuizController) ReviewPDF(c *gin.Context) {
	summary, err := qc.QuizService.Summary(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := qc.ReportService.ReviewPDF(*summary)
	if err != nil {
		utilities.Error("review pdf for %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render review"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="review.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Retry handles POST /sessions/:id/retry
func (qc *QuizController) Retry(c *gin.Context) {
	info, err := qc.QuizService.RetrySession(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// EndSession handles DELETE /sessions/:id
func (qc *QuizController) EndSession(c *gin.Context) {
	if err := qc.QuizService.EndSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quiz.ErrInvalidSelection):
		status = http.StatusBadRequest
	case errors.Is(err, quiz.ErrInvalidConfig):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrOutOfRange), errors.Is(err, quiz.ErrEmptySession):
		status = http.StatusConflict
	case errors.Is(err, service.ErrTooManySessions):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		utilities.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
