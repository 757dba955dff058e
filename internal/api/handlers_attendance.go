package api

import (
	"net/http"
	"strings"

	"github.com/zapponejosh/pathshala-api/internal/attendance"
	"github.com/zapponejosh/pathshala-api/internal/database"
)

const modeGetOrCreate = "get_or_create"

// markRequest is one attendance entry in a request body. Mode applies to
// single marks only.
type markRequest struct {
	StudentID string `json:"student_id" validate:"required,max=100"`
	Date      string `json:"date" validate:"required,isodate"`
	Status    string `json:"status" validate:"required,attstatus"`
	Remark    string `json:"remark" validate:"max=500"`
	MarkedBy  string `json:"marked_by" validate:"max=100"`
	Mode      string `json:"mode" validate:"omitempty,oneof=create get_or_create"`
}

func (m markRequest) toLedger(r *http.Request) attendance.MarkRequest {
	// Validated already.
	date, _ := database.ParseDate(m.Date)
	markedBy := m.MarkedBy
	if markedBy == "" {
		markedBy = Actor(r)
	}
	return attendance.MarkRequest{
		StudentID: strings.TrimSpace(m.StudentID),
		SchoolID:  SchoolID(r),
		Date:      date,
		Status:    database.AttendanceStatus(m.Status),
		Remark:    m.Remark,
		MarkedBy:  markedBy,
	}
}

// MarkAttendance handles POST /api/v1/attendance
//
// mode "create" (default) fails with 409 when the student already has a
// record for the date; "get_or_create" returns the existing record instead.
func (h *Handlers) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	mark := req.toLedger(r)

	if req.Mode == modeGetOrCreate {
		record, created, err := h.ledger.MarkOrGet(ctx, mark)
		if err != nil {
			h.writeServiceError(w, r, err, "mark attendance")
			return
		}
		if created {
			WriteCreated(w, record)
			return
		}
		WriteSuccess(w, record)
		return
	}

	record, err := h.ledger.Mark(ctx, mark)
	if err != nil {
		h.writeServiceError(w, r, err, "mark attendance")
		return
	}
	WriteCreated(w, record)
}

// MarkAttendanceBatch handles POST /api/v1/attendance/batch
//
// Entries on non-school days or already recorded are reported, not fatal.
func (h *Handlers) MarkAttendanceBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []markRequest `json:"records" validate:"required,min=1,max=1000,dive"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	marks := make([]attendance.MarkRequest, len(req.Records))
	for i, m := range req.Records {
		marks[i] = m.toLedger(r)
	}

	report, err := h.ledger.MarkBatch(r.Context(), marks)
	if err != nil {
		h.writeServiceError(w, r, err, "mark attendance")
		return
	}
	WriteSuccess(w, report)
}

// ListStudentAttendance handles GET /api/v1/attendance/students/{studentID}
func (h *Handlers) ListStudentAttendance(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")
	from, to, err := dateRange(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	records, err := h.ledger.List(r.Context(), database.AttendanceFilter{
		StudentID: studentID,
		From:      from,
		To:        to,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "list attendance")
		return
	}

	WriteSuccess(w, map[string]any{
		"student_id": studentID,
		"records":    records,
		"count":      len(records),
	})
}

// GetStudentSummary handles GET /api/v1/attendance/students/{studentID}/summary
func (h *Handlers) GetStudentSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	summary, err := h.ledger.Summary(r.Context(), r.PathValue("studentID"), from, to)
	if err != nil {
		h.writeServiceError(w, r, err, "summarise attendance")
		return
	}
	WriteSuccess(w, summary)
}

// CleanAttendance handles POST /api/v1/attendance/clean
//
// Removes the school's records on dates that are no longer school days.
func (h *Handlers) CleanAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from" validate:"required,isodate"`
		To   string `json:"to" validate:"required,isodate"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	from, _ := database.ParseDate(req.From)
	to, _ := database.ParseDate(req.To)
	if to.Before(from.Time) {
		WriteBadRequest(w, "from must be before or equal to to")
		return
	}

	report, err := h.ledger.Clean(r.Context(), SchoolID(r), from, to)
	if err != nil {
		h.writeServiceError(w, r, err, "clean attendance")
		return
	}
	WriteSuccess(w, report)
}
