package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eone-api/internal/service"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
	"github.com/noah-isme/eone-api/pkg/response"
)

// SubmissionHandler exposes submission endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Create godoc
// @Summary Submit an assignment answer
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param assignment_id formData string true "Assignment ID"
// @Param user_id formData string true "Student ID"
// @Param file formData file true "Answer file"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	name, data, err := readFormFile(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}

	submission, err := h.submissions.Create(c.Request.Context(), service.CreateSubmissionRequest{
		AssignmentID: c.PostForm("assignment_id"),
		UserID:       c.PostForm("user_id"),
		FileName:     name,
		FileData:     data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Reupload godoc
// @Summary Replace the answer file on an ungraded submission
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Submission ID"
// @Param file formData file true "Replacement file"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [patch]
func (h *SubmissionHandler) Reupload(c *gin.Context) {
	name, data, err := readFormFile(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}

	submission, err := h.submissions.Reupload(c.Request.Context(), c.Param("id"), name, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.GradeSubmissionRequest true "Grading payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/grade [patch]
func (h *SubmissionHandler) Grade(c *gin.Context) {
	var req service.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Grade(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// List godoc
// @Summary List submissions for a student
// @Tags Submissions
// @Produce json
// @Param student_id query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id is required"))
		return
	}
	submissions, err := h.submissions.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}
