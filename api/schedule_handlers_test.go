package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchedule_EveryOtherDay(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/schedules",
		`{"frequency":"eod","time_of_day":"am","duration_days":6,"start_date":"2025-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ScheduleResponse](t, rec)
	assert.Equal(t, "eod", resp.Frequency)
	assert.Equal(t, 3, resp.TotalDays)
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, "2025-01-01", resp.Entries[0].Date.String())
	assert.Equal(t, "Wed", resp.Entries[0].DayOfWeek)
	assert.Equal(t, "2025-01-05", resp.Entries[2].Date.String())
	assert.Equal(t, 1, resp.Entries[2].Week)

	// No two entries are consecutive, so every run has one date
	require.Len(t, resp.Runs, 3)
	assert.Equal(t, "2025-01-03", resp.Runs[1].DateRange)
	assert.Equal(t, 1, resp.Runs[1].Count)

	require.Len(t, resp.Weeks, 1)
	assert.Equal(t, 2025, resp.Weeks[0].Year)
}

func TestGenerateSchedule_DailyRunAndDefaultStart(t *testing.T) {
	// GIVEN: No start date, so today (2025-03-15) is used
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/schedules",
		`{"frequency":"daily","time_of_day":"both","duration_days":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ScheduleResponse](t, rec)
	assert.Equal(t, "2025-03-15", resp.StartDate.String())
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "2025-03-15 - 2025-03-24", resp.Runs[0].DateRange)
	assert.Equal(t, 10, resp.Runs[0].Count)
	assert.Len(t, resp.Weeks, 3) // Sat-Sun, Mon-Sun, Mon
}

func TestGenerateSchedule_EmptyDuration(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/schedules",
		`{"frequency":"weekly","time_of_day":"pm","duration_days":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries":[]`)
	assert.Contains(t, rec.Body.String(), `"runs":[]`)
	assert.Contains(t, rec.Body.String(), `"total_days":0`)
}

func TestGenerateSchedule_Rejected(t *testing.T) {
	_, router := setupTestHandler(t)

	cases := map[string]string{
		"unknown frequency":    `{"frequency":"hourly","time_of_day":"am","duration_days":7}`,
		"unknown time of day":  `{"frequency":"daily","time_of_day":"noon","duration_days":7}`,
		"custom without days":  `{"frequency":"custom","time_of_day":"am","duration_days":7}`,
		"weekday out of range": `{"frequency":"custom","time_of_day":"am","duration_days":7,"custom_days":[7]}`,
		"too long":             `{"frequency":"daily","time_of_day":"am","duration_days":100000}`,
		"bad start":            `{"frequency":"daily","time_of_day":"am","duration_days":7,"start_date":"tomorrow"}`,
		"malformed":            `{"frequency":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/schedules", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Details)
		})
	}
}

func TestExportScheduleCSV(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/schedules/csv",
		`{"frequency":"custom","time_of_day":"pm","duration_days":7,"custom_days":[0,6],"start_date":"2025-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="protocol-schedule-2025-01-01.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, []string{
		"Date,Day of Week,Time of Day,Week",
		"2025-01-04,Sat,pm,1",
		"2025-01-05,Sun,pm,1",
	}, lines)
}
