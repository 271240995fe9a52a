package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"glowdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRender(t *testing.T) {
	id := uuid.MustParse("9b2f4c1e-3a55-4b6e-8f10-2d4c6a8e0b11")
	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	notes := "Gel; french tips, no polish"

	feed := Feed{SalonName: "Nails, Inc", Domain: "glowdesk.app", Now: start.Add(-time.Hour)}
	out := string(feed.Render([]*models.CalendarEvent{{
		Appointment: models.Appointment{
			ID:          id,
			ServiceName: "Manicure",
			StartsAt:    start,
			EndsAt:      start.Add(45 * time.Minute),
			Status:      models.AppointmentConfirmed,
			Notes:       &notes,
			UpdatedAt:   start.Add(-2 * time.Hour),
		},
		ClientName: "Ana Ruiz",
	}}))

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Contains(t, out, "X-WR-CALNAME:Nails\\, Inc\r\n")
	assert.Contains(t, out, "UID:"+id.String()+"@glowdesk.app\r\n")
	assert.Contains(t, out, "DTSTART:20260314T150000Z\r\n")
	assert.Contains(t, out, "DTEND:20260314T154500Z\r\n")
	assert.Contains(t, out, "SUMMARY:Manicure - Ana Ruiz\r\n")
	assert.Contains(t, out, `DESCRIPTION:Gel\; french tips\, no polish`+"\r\n")
	assert.Contains(t, out, "STATUS:CONFIRMED\r\n")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
}

func TestFeedRender_Empty(t *testing.T) {
	out := string(Feed{SalonName: "Glow", Domain: "x", Now: time.Now()}.Render(nil))
	assert.NotContains(t, out, "VEVENT")
	assert.Contains(t, out, "PRODID:-//GlowDesk//Appointments//EN\r\n")
}

func TestWriteLine_Folds(t *testing.T) {
	var buf bytes.Buffer
	long := "DESCRIPTION:" + strings.Repeat("ñ", 60)
	writeLine(&buf, long)

	out := strings.TrimSuffix(buf.String(), "\r\n")
	lines := strings.Split(out, "\r\n")
	require.Greater(t, len(lines), 1)
	for i, l := range lines {
		assert.LessOrEqual(t, len(l), maxLineOctets)
		if i > 0 {
			assert.True(t, strings.HasPrefix(l, " "))
		}
	}
	assert.Equal(t, long, strings.ReplaceAll(out, "\r\n ", ""))
}

func TestEventStatus(t *testing.T) {
	assert.Equal(t, "TENTATIVE", eventStatus(models.AppointmentScheduled))
	assert.Equal(t, "CONFIRMED", eventStatus(models.AppointmentCompleted))
	assert.Equal(t, "CANCELLED", eventStatus(models.AppointmentCancelled))
}
