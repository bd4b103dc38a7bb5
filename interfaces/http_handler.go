package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
	"github.com/lookjihoon/AI-Interview-System-V2/infrastructure"
	"github.com/lookjihoon/AI-Interview-System-V2/services"
)

type HTTPHandler struct {
	DB  *gorm.DB
	RMQ *infrastructure.RabbitMQ
	Svc *services.Interview
	Log *logrus.Logger
}

func NewHTTPHandler(router *gin.Engine, db *gorm.DB, rmq *infrastructure.RabbitMQ, svc *services.Interview, log *logrus.Logger) {
	h := &HTTPHandler{DB: db, RMQ: rmq, Svc: svc, Log: log}

	router.POST("/api/interview/start", h.StartInterview)
	router.POST("/api/interview/chat", h.Chat)
	router.GET("/api/interview/session/:id", h.GetSession)
	router.POST("/api/interview/session/:id/end", h.EndInterview)
	router.POST("/api/interview/session/:id/vision-summary", h.SubmitVisionSummary)
	router.GET("/api/interview/session/:id/report", h.GetReport)

	router.POST("/api/candidate/users", h.CreateUser)
	router.GET("/api/candidate/users/:id", h.GetUser)
	router.POST("/api/candidate/resumes", h.UploadResume)
	router.GET("/api/candidate/users/:id/resume", h.GetUserResume)

	router.POST("/api/admin/jobs", h.CreateJob)
	router.GET("/api/admin/jobs", h.ListJobs)
	router.GET("/api/admin/jobs/:id", h.GetJob)
	router.PUT("/api/admin/jobs/:id", h.UpdateJob)
	router.DELETE("/api/admin/jobs/:id", h.CloseJob)
	router.PATCH("/api/admin/jobs/:id/reopen", h.ReopenJob)
	router.POST("/api/admin/jobs/:id/copy", h.CopyJob)
	router.GET("/api/admin/jobs/:id/applicants", h.ListJobApplicants)
}

// StartInterview creates a new session and persists the fixed greeting.
func (h *HTTPHandler) StartInterview(c *gin.Context) {
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
		JobID  uint `json:"job_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user domain.User
	if err := h.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var job domain.JobPosting
	if err := h.DB.First(&job, req.JobID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}

	session := domain.InterviewSession{
		UserID:       req.UserID,
		JobPostingID: req.JobID,
		ResumeText:   user.ResumeText, // snapshot so mid-interview resume edits don't shift questions
		Status:       domain.SessionInProgress,
	}
	if err := h.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	greeting := fmt.Sprintf(
		"안녕하세요, %s님! %s 직무 면접에 오신 것을 환영합니다. 저는 AI 면접관입니다. 편안한 마음으로 면접에 임해주세요.",
		user.Name, job.Title,
	)
	if err := h.DB.Create(&domain.Transcript{
		SessionID: session.ID,
		Sender:    domain.SenderAI,
		Content:   greeting,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save greeting"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"message":    greeting,
		"user_name":  user.Name,
		"job_title":  job.Title,
	})
}

// Chat runs one interview turn: persist the answer, score it, pick the next
// question, persist it, return both. At the terminal turn it runs the closing
// responder and queues report generation instead.
func (h *HTTPHandler) Chat(c *gin.Context) {
	var req struct {
		SessionID      uint     `json:"session_id" binding:"required"`
		UserAnswer     string   `json:"user_answer"`
		AnswerDuration *float64 `json:"answer_duration_sec"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session domain.InterviewSession
	if err := h.DB.First(&session, req.SessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "interview session not found"})
		return
	}
	if session.Status != domain.SessionInProgress {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interview session is not active"})
		return
	}

	ctx := c.Request.Context()
	var evaluation *domain.Evaluation

	if req.UserAnswer != "" {
		// The previous AI utterance is the question this answer belongs to.
		var prevQuestion domain.Transcript
		hasPrev := h.DB.Where("session_id = ? AND sender = ?", session.ID, domain.SenderAI).
			Order("timestamp DESC").Order("id DESC").First(&prevQuestion).Error == nil

		answerRow := domain.Transcript{
			SessionID:   session.ID,
			Sender:      domain.SenderHuman,
			Content:     req.UserAnswer,
			DurationSec: req.AnswerDuration,
		}
		if err := h.DB.Create(&answerRow).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save answer"})
			return
		}

		turns, err := h.Svc.TurnCount(session.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read transcript"})
			return
		}

		if services.PhaseForTurn(turns, h.Svc.Cfg) == services.PhaseTerminal {
			h.finishInterview(c, &session, req.UserAnswer)
			return
		}

		if hasPrev {
			var job domain.JobPosting
			jobContext := ""
			if err := h.DB.First(&job, session.JobPostingID).Error; err == nil {
				if job.Requirements != nil {
					jobContext = *job.Requirements
				}
				if job.TargetCapabilities != nil {
					jobContext += " " + *job.TargetCapabilities
				}
			}

			ev := h.Svc.EvaluateAnswer(ctx, prevQuestion.Content, req.UserAnswer, jobContext)
			evaluation = &ev

			// Backfill score/feedback onto the answer row just written.
			h.DB.Model(&domain.Transcript{}).Where("id = ?", answerRow.ID).
				Updates(map[string]interface{}{"score": ev.Score, "feedback": ev.Feedback})
		}
	}

	historyIDs := h.askedQuestionIDs(session.ID)
	h.Log.WithFields(logrus.Fields{"session_id": session.ID, "asked": len(historyIDs)}).
		Info("[CHAT] Selecting next question")

	next, err := h.Svc.NextQuestion(ctx, &session, historyIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if next == nil {
		// Bank exhausted: end gracefully, not as an error.
		h.DB.Model(&session).Update("status", domain.SessionCompleted)
		h.queueReport(session.ID)
		c.JSON(http.StatusOK, gin.H{
			"evaluation":         evaluation,
			"next_question":      "준비된 질문이 모두 끝났습니다. 면접에 참여해 주셔서 감사합니다.",
			"question_id":        nil,
			"category":           services.CategoryClosing,
			"interview_complete": true,
		})
		return
	}

	turns, _ := h.Svc.TurnCount(session.ID)
	kind := string(services.PhaseForTurn(turns, h.Svc.Cfg))
	if err := h.DB.Create(&domain.Transcript{
		SessionID:  session.ID,
		Sender:     domain.SenderAI,
		Content:    next.Text,
		QuestionID: next.BankID,
		TurnKind:   &kind,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"evaluation":    evaluation,
		"next_question": next.Text,
		"question_id":   next.BankID,
		"category":      fmt.Sprintf("%s / %s", next.Category, next.SubCategory),
	})
}

// finishInterview handles the answer to the closing question: closing
// responder, status flip, report job.
func (h *HTTPHandler) finishInterview(c *gin.Context, session *domain.InterviewSession, finalRemark string) {
	reply := h.Svc.ClosingResponse(c.Request.Context(), finalRemark)

	kind := string(services.PhaseTerminal)
	h.DB.Create(&domain.Transcript{
		SessionID: session.ID,
		Sender:    domain.SenderAI,
		Content:   reply,
		TurnKind:  &kind,
	})
	h.DB.Model(session).Update("status", domain.SessionCompleted)
	h.queueReport(session.ID)

	c.JSON(http.StatusOK, gin.H{
		"evaluation":         nil,
		"next_question":      reply,
		"question_id":        nil,
		"category":           services.CategoryClosing,
		"interview_complete": true,
	})
}

// queueReport publishes a report job; if the queue is down the report is
// generated inline so a completed session never misses one.
func (h *HTTPHandler) queueReport(sessionID uint) {
	if h.RMQ != nil {
		if err := h.RMQ.PublishReportJob(infrastructure.ReportJob{SessionID: sessionID}); err == nil {
			return
		} else {
			h.Log.WithError(err).Warn("[REPORT] Failed to queue report job, generating inline")
		}
	}
	if _, err := h.Svc.GenerateReport(context.Background(), sessionID); err != nil {
		h.Log.WithError(err).Error("[REPORT] Inline report generation failed")
	}
}

func (h *HTTPHandler) askedQuestionIDs(sessionID uint) []uint {
	var rows []domain.Transcript
	h.DB.Where("session_id = ? AND sender = ? AND question_id IS NOT NULL", sessionID, domain.SenderAI).
		Find(&rows)
	var ids []uint
	for _, row := range rows {
		if row.QuestionID != nil {
			ids = append(ids, *row.QuestionID)
		}
	}
	return ids
}

// GetSession returns session details with the ordered transcript.
func (h *HTTPHandler) GetSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var session domain.InterviewSession
	if err := h.DB.First(&session, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "interview session not found"})
		return
	}

	var user domain.User
	userName := "Unknown"
	if err := h.DB.First(&user, session.UserID).Error; err == nil {
		userName = user.Name
	}
	var job domain.JobPosting
	jobTitle := "Unknown"
	if err := h.DB.First(&job, session.JobPostingID).Error; err == nil {
		jobTitle = job.Title
	}

	var transcripts []domain.Transcript
	h.DB.Where("session_id = ?", session.ID).Order("timestamp ASC").Order("id ASC").Find(&transcripts)

	items := make([]gin.H, 0, len(transcripts))
	for _, t := range transcripts {
		items = append(items, gin.H{
			"sender":    t.Sender,
			"content":   t.Content,
			"timestamp": t.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"user_name":  userName,
		"job_title":  jobTitle,
		"status":     session.Status,
		"created_at": session.CreatedAt,
		"transcript": items,
	})
}

// EndInterview administratively completes a session.
func (h *HTTPHandler) EndInterview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var session domain.InterviewSession
	if err := h.DB.First(&session, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "interview session not found"})
		return
	}

	h.DB.Model(&session).Update("status", domain.SessionCompleted)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Interview session ended successfully",
		"session_id": session.ID,
		"status":     domain.SessionCompleted,
	})
}

// SubmitVisionSummary stores the emotion-frame histogram collected by the
// webcam client. Submitted once, at the end of the session.
func (h *HTTPHandler) SubmitVisionSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Counts   map[string]int   `json:"counts" binding:"required"`
		Timeline []map[string]any `json:"timeline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session domain.InterviewSession
	if err := h.DB.First(&session, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "interview session not found"})
		return
	}

	payload, err := json.Marshal(gin.H{"counts": req.Counts, "timeline": req.Timeline})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emotion summary"})
		return
	}
	summary := string(payload)
	if err := h.DB.Model(&session).Update("emotion_summary", &summary).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save emotion summary"})
		return
	}

	h.Log.WithField("session_id", session.ID).Info("[VISION] Emotion summary stored")
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "status": "ok"})
}

// GetReport returns the persisted evaluation report; 404 until generated.
func (h *HTTPHandler) GetReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var report domain.EvaluationReport
	if err := h.DB.Where("session_id = ?", id).First(&report).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
