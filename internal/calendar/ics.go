package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"glowdesk/internal/models"
)

const (
	icsTimeFormat = "20060102T150405Z"
	maxLineOctets = 75
)

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// Feed renders appointments as an iCalendar (RFC 5545) document.
type Feed struct {
	SalonName string
	Domain    string
	Now       time.Time
}

// Render writes a VCALENDAR with one VEVENT per appointment.
func (f Feed) Render(events []*models.CalendarEvent) []byte {
	var buf bytes.Buffer
	stamp := f.Now.UTC().Format(icsTimeFormat)

	writeLine(&buf, "BEGIN:VCALENDAR")
	writeLine(&buf, "VERSION:2.0")
	writeLine(&buf, "PRODID:-//GlowDesk//Appointments//EN")
	writeLine(&buf, "CALSCALE:GREGORIAN")
	writeLine(&buf, "METHOD:PUBLISH")
	writeLine(&buf, "X-WR-CALNAME:"+escapeText(f.SalonName))

	for _, e := range events {
		writeLine(&buf, "BEGIN:VEVENT")
		writeLine(&buf, fmt.Sprintf("UID:%s@%s", e.ID, f.Domain))
		writeLine(&buf, "DTSTAMP:"+stamp)
		writeLine(&buf, "DTSTART:"+e.StartsAt.UTC().Format(icsTimeFormat))
		writeLine(&buf, "DTEND:"+e.EndsAt.UTC().Format(icsTimeFormat))
		writeLine(&buf, "SUMMARY:"+escapeText(summary(e)))
		if e.Notes != nil && *e.Notes != "" {
			writeLine(&buf, "DESCRIPTION:"+escapeText(*e.Notes))
		}
		writeLine(&buf, "STATUS:"+eventStatus(e.Status))
		writeLine(&buf, "LAST-MODIFIED:"+e.UpdatedAt.UTC().Format(icsTimeFormat))
		writeLine(&buf, "END:VEVENT")
	}

	writeLine(&buf, "END:VCALENDAR")
	return buf.Bytes()
}

func summary(e *models.CalendarEvent) string {
	if e.ClientName == "" {
		return e.ServiceName
	}
	return e.ServiceName + " - " + e.ClientName
}

func eventStatus(status string) string {
	switch status {
	case models.AppointmentConfirmed, models.AppointmentCompleted:
		return "CONFIRMED"
	case models.AppointmentCancelled:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// writeLine folds content lines longer than 75 octets, never splitting a UTF-8 sequence.
// Continuation lines start with a space, which counts toward the limit.
func writeLine(buf *bytes.Buffer, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8Start(line[cut]) {
			cut--
		}
		buf.WriteString(line[:cut])
		buf.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
