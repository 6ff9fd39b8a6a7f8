package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navaja-dev/barber-academy-api/internal/service"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
	"github.com/navaja-dev/barber-academy-api/pkg/response"
)

// AttendanceHandler exposes the attendance grid and bulk save endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	exports    *service.ExportService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, exports *service.ExportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exports: exports}
}

// Grid godoc
// @Summary Get the attendance grid of a course
// @Description Full cross product of active enrollments and derived class dates; unstored cells are UNMARKED
// @Tags Attendance
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/attendance [get]
func (h *AttendanceHandler) Grid(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grid, err := h.attendance.BuildGrid(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// BulkSave godoc
// @Summary Save an attendance batch for one class date
// @Description Invalid records are dropped; an all-invalid batch fails with EMPTY_BATCH and writes nothing
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.BulkSaveRequest true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/{id}/attendance [post]
func (h *AttendanceHandler) BulkSave(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.BulkSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.attendance.BulkSave(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportCSV godoc
// @Summary Export the attendance grid as CSV
// @Tags Attendance
// @Produce text/csv
// @Param id path int true "Course ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/attendance/export/csv [get]
func (h *AttendanceHandler) ExportCSV(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, filename, err := h.exports.AttendanceCSV(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF godoc
// @Summary Export the attendance grid as a printable PDF sheet
// @Tags Attendance
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/attendance/export/pdf [get]
func (h *AttendanceHandler) ExportPDF(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, filename, err := h.exports.AttendancePDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
