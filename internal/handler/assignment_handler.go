package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eone-api/internal/models"
	"github.com/noah-isme/eone-api/internal/service"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
	"github.com/noah-isme/eone-api/pkg/response"
)

// AssignmentHandler exposes assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	submissions *service.SubmissionService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService, submissions *service.SubmissionService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, submissions: submissions}
}

// Create godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param due_date formData string false "Due date (YYYY-MM-DD)"
// @Param subject_id formData string true "Subject ID"
// @Param teacher_id formData string true "Teacher ID"
// @Param file formData file true "Assignment file"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	name, data, err := readFormFile(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	dueDate, err := parseDueDate(c.PostForm("due_date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	assignment, err := h.assignments.Create(c.Request.Context(), service.CreateAssignmentRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		DueDate:     dueDate,
		SubjectID:   c.PostForm("subject_id"),
		TeacherID:   c.PostForm("teacher_id"),
		FileName:    name,
		FileData:    data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary List assignments by teacher or by student classroom
// @Tags Assignments
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param student_id query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{
		TeacherID: c.Query("teacher_id"),
		StudentID: c.Query("student_id"),
	}
	assignments, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Get godoc
// @Summary Get assignment detail
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.assignments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Update godoc
// @Summary Update assignment
// @Tags Assignments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Assignment ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param due_date formData string false "Due date (YYYY-MM-DD)"
// @Param file formData file false "Replacement file"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [patch]
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req service.UpdateAssignmentRequest
	if title, ok := c.GetPostForm("title"); ok {
		req.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		req.Description = &description
	}
	if raw, ok := c.GetPostForm("due_date"); ok {
		dueDate, err := parseDueDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		req.DueDate = dueDate
	}
	if name, data, err := readFormFile(c, "file"); err == nil {
		req.FileName = name
		req.FileData = data
	}

	assignment, err := h.assignments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Delete godoc
// @Summary Delete assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submissions godoc
// @Summary List submissions for an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) Submissions(c *gin.Context) {
	rows, err := h.submissions.ListByAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
	}
	return &parsed, nil
}

func readFormFile(c *gin.Context, field string) (string, []byte, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, field+" upload is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file")
	}
	return header.Filename, data, nil
}
