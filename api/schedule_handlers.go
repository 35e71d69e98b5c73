package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/peptora/backoffice/protocol"
)

// maxScheduleBody bounds the request; a valid schedule request is tiny.
const maxScheduleBody = 64 << 10

// GenerateSchedule returns the schedule as entries, simplified runs and ISO weeks.
//
//	POST /api/schedules
//	{"frequency": "eod", "time_of_day": "am", "duration_days": 28}
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	sched, ok := h.generateSchedule(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

// ExportScheduleCSV returns the schedule as a CSV download.
func (h *Handler) ExportScheduleCSV(w http.ResponseWriter, r *http.Request) {
	sched, ok := h.generateSchedule(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := protocol.WriteCSV(&buf, sched.Entries); err != nil {
		h.writeDomainError(w, "Failed to export schedule", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", protocol.CSVFilename(sched)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) generateSchedule(w http.ResponseWriter, r *http.Request) (protocol.Schedule, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScheduleBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return protocol.Schedule{}, false
	}

	// Every failure past this point is a rejected request: ParseSchedule and
	// GenerateWithEOD only fail on validation.
	cfg, err := h.Schedules.ParseSchedule(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return protocol.Schedule{}, false
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = h.today()
	}

	sched, err := protocol.GenerateWithEOD(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return protocol.Schedule{}, false
	}

	h.log.WithFields(logrus.Fields{
		"frequency":   sched.Frequency,
		"time_of_day": sched.TimeOfDay,
		"duration":    sched.DurationDays,
		"total_days":  sched.TotalDays,
	}).Debug("Schedule generated")
	return sched, true
}
