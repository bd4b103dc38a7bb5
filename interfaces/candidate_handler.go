package interfaces

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
	"github.com/lookjihoon/AI-Interview-System-V2/infrastructure"
)

// CreateUser registers a candidate (simple registration, no password).
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing domain.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	}

	role := domain.RoleCandidate
	if req.Role != "" {
		switch strings.ToUpper(req.Role) {
		case string(domain.RoleCandidate):
			role = domain.RoleCandidate
		case string(domain.RoleAdmin):
			role = domain.RoleAdmin
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role, must be CANDIDATE or ADMIN"})
			return
		}
	}

	user := domain.User{Name: req.Name, Email: req.Email, Role: role}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	})
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var user domain.User
	if err := h.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	})
}

// UploadResume accepts a multipart resume file, extracts its text and stores
// it on the user.
func (h *HTTPHandler) UploadResume(c *gin.Context) {
	userIDStr := c.PostForm("user_id")
	var user domain.User
	if err := h.DB.First(&user, userIDStr).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	header, err := c.FormFile("resume_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resume_file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open resume file"})
		return
	}
	defer file.Close()

	text, err := infrastructure.ExtractResumeText(file, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract resume text: " + err.Error()})
		return
	}

	if err := h.DB.Model(&user).Update("resume_text", &text).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save resume"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     user.ID,
		"text_length": len(text),
		"message":     "Resume uploaded and processed successfully",
	})
}

func (h *HTTPHandler) GetUserResume(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var user domain.User
	if err := h.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.ResumeText == nil || *user.ResumeText == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "resume not found for this user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"resume_text": *user.ResumeText,
	})
}

// CreateJob registers a job posting with full JD details.
func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var req struct {
		Title              string  `json:"title" binding:"required"`
		Description        string  `json:"description" binding:"required"`
		Requirements       *string `json:"requirements"`
		MinExperience      int     `json:"min_experience"`
		TargetCapabilities *string `json:"target_capabilities"`
		Conditions         *string `json:"conditions"`
		Procedures         *string `json:"procedures"`
		ApplicationMethod  *string `json:"application_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := domain.JobPosting{
		Title:              req.Title,
		Description:        req.Description,
		Requirements:       req.Requirements,
		MinExperience:      req.MinExperience,
		TargetCapabilities: req.TargetCapabilities,
		Conditions:         req.Conditions,
		Procedures:         req.Procedures,
		ApplicationMethod:  req.ApplicationMethod,
		Status:             domain.JobActive,
	}
	if err := h.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job posting"})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListJobs returns all postings; admins see ACTIVE and CLOSED alike.
func (h *HTTPHandler) ListJobs(c *gin.Context) {
	var jobs []domain.JobPosting
	if err := h.DB.Order("created_at DESC").Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list job postings"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *HTTPHandler) GetJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var job domain.JobPosting
	if err := h.DB.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// CloseJob soft-closes a posting rather than deleting it.
func (h *HTTPHandler) CloseJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var job domain.JobPosting
	if err := h.DB.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}

	h.DB.Model(&job).Update("status", domain.JobClosed)
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ReopenJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var job domain.JobPosting
	if err := h.DB.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}

	h.DB.Model(&job).Update("status", domain.JobActive)
	c.JSON(http.StatusOK, job)
}

// UpdateJob edits an existing posting. Optional fields left out of the
// request keep their stored values.
func (h *HTTPHandler) UpdateJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Title              string  `json:"title" binding:"required"`
		Description        string  `json:"description" binding:"required"`
		Requirements       *string `json:"requirements"`
		MinExperience      int     `json:"min_experience"`
		TargetCapabilities *string `json:"target_capabilities"`
		Conditions         *string `json:"conditions"`
		Procedures         *string `json:"procedures"`
		ApplicationMethod  *string `json:"application_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var job domain.JobPosting
	if err := h.DB.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}

	job.Title = req.Title
	job.Description = req.Description
	job.MinExperience = req.MinExperience
	if req.Requirements != nil {
		job.Requirements = req.Requirements
	}
	if req.TargetCapabilities != nil {
		job.TargetCapabilities = req.TargetCapabilities
	}
	if req.Conditions != nil {
		job.Conditions = req.Conditions
	}
	if req.Procedures != nil {
		job.Procedures = req.Procedures
	}
	if req.ApplicationMethod != nil {
		job.ApplicationMethod = req.ApplicationMethod
	}

	if err := h.DB.Save(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update job posting"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// CopyJob duplicates a posting under a "[사본]" title so HR can tweak and
// repost it.
func (h *HTTPHandler) CopyJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var original domain.JobPosting
	if err := h.DB.First(&original, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}

	dup := domain.JobPosting{
		Title:              "[사본] " + original.Title,
		Description:        original.Description,
		Requirements:       original.Requirements,
		MinExperience:      original.MinExperience,
		TargetCapabilities: original.TargetCapabilities,
		Conditions:         original.Conditions,
		Procedures:         original.Procedures,
		ApplicationMethod:  original.ApplicationMethod,
		Status:             domain.JobActive,
	}
	if err := h.DB.Create(&dup).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to copy job posting"})
		return
	}
	c.JSON(http.StatusCreated, dup)
}

type applicantEntry struct {
	SessionID          uint      `json:"session_id"`
	UserID             uint      `json:"user_id"`
	CandidateName      string    `json:"candidate_name"`
	CandidateEmail     string    `json:"candidate_email"`
	InterviewDate      time.Time `json:"interview_date"`
	TotalScore         *int      `json:"total_score"`
	TechScore          *int      `json:"tech_score"`
	CommunicationScore *int      `json:"communication_score"`
	NonVerbalScore     *int      `json:"non_verbal_score"`
	HasReport          bool      `json:"has_report"`
}

// ListJobApplicants returns the leaderboard of candidates who completed an
// interview for this posting, best total score first. Sessions whose report
// has not been generated yet sink to the bottom.
func (h *HTTPHandler) ListJobApplicants(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var job domain.JobPosting
	if err := h.DB.First(&job, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job posting not found"})
		return
	}

	var sessions []domain.InterviewSession
	h.DB.Where("job_posting_id = ? AND status = ?", id, domain.SessionCompleted).
		Order("created_at DESC").Find(&sessions)

	results := make([]applicantEntry, 0, len(sessions))
	for _, s := range sessions {
		entry := applicantEntry{
			SessionID:     s.ID,
			UserID:        s.UserID,
			CandidateName: "Unknown",
			InterviewDate: s.CreatedAt,
		}
		var user domain.User
		if err := h.DB.First(&user, s.UserID).Error; err == nil {
			entry.CandidateName = user.Name
			entry.CandidateEmail = user.Email
		}
		var report domain.EvaluationReport
		if err := h.DB.Where("session_id = ?", s.ID).First(&report).Error; err == nil {
			entry.HasReport = true
			entry.TotalScore = &report.TotalScore
			entry.TechScore = &report.TechScore
			entry.CommunicationScore = &report.CommunicationScore
			entry.NonVerbalScore = &report.NonVerbalScore
		}
		results = append(results, entry)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].TotalScore, results[j].TotalScore
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})

	c.JSON(http.StatusOK, results)
}
