package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"glowdesk/internal/common"
	"glowdesk/internal/models"
	"glowdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPublicCalendarFeed(t *testing.T) {
	e := echo.New()

	t.Run("serves ics", func(t *testing.T) {
		svc := &MockAppointmentService{}
		svc.On("CalendarFeedByToken", mock.Anything, "f3a9c1").Return([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil)

		c, rec := newRequest(e, http.MethodGet, "/calendar/f3a9c1.ics", nil, uuid.Nil, uuid.Nil)
		c.SetParamNames("feed")
		c.SetParamValues("f3a9c1.ics")

		require.NoError(t, NewAppointmentHandlers(svc).PublicCalendarFeed(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "private, max-age=300", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := &MockAppointmentService{}
		svc.On("CalendarFeedByToken", mock.Anything, "revoked").Return(nil, fmt.Errorf("tenant: %w", services.ErrNotFound))

		c, rec := newRequest(e, http.MethodGet, "/calendar/revoked.ics", nil, uuid.Nil, uuid.Nil)
		c.SetParamNames("feed")
		c.SetParamValues("revoked.ics")

		require.NoError(t, NewAppointmentHandlers(svc).PublicCalendarFeed(c))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateAppointmentStatus(t *testing.T) {
	e := echo.New()
	tenantID, userID, id := uuid.New(), uuid.New(), uuid.New()

	t.Run("completed", func(t *testing.T) {
		svc := &MockAppointmentService{}
		svc.On("UpdateStatus", mock.Anything, tenantID, id, models.AppointmentCompleted).
			Return(&models.Appointment{ID: id, Status: models.AppointmentCompleted}, nil)

		c, rec := newRequest(e, http.MethodPatch, "/", jsonBody(`{"status":"completed"}`), tenantID, userID)
		c.SetParamNames("id")
		c.SetParamValues(id.String())

		require.NoError(t, NewAppointmentHandlers(svc).UpdateAppointmentStatus(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"completed"`)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := &MockAppointmentService{}
		svc.On("UpdateStatus", mock.Anything, tenantID, id, "done").
			Return(nil, &services.ValidationError{Field: "status", Message: "unknown status"})

		c, rec := newRequest(e, http.MethodPatch, "/", jsonBody(`{"status":"done"}`), tenantID, userID)
		c.SetParamNames("id")
		c.SetParamValues(id.String())

		require.NoError(t, NewAppointmentHandlers(svc).UpdateAppointmentStatus(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error.Details, "status")
	})
}

func TestListAppointments_RejectsBadStaffID(t *testing.T) {
	svc := &MockAppointmentService{}
	tenantID := uuid.New()

	c, rec := newRequest(echo.New(), http.MethodGet, "/v1/appointments?staff_id=abc", nil, tenantID, uuid.New())

	require.NoError(t, NewAppointmentHandlers(svc).ListAppointments(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.CodeValidation, decodeError(t, rec).Error.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadPortfolioItem(t *testing.T) {
	tenantID := uuid.New()
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x00}, 64)...)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Balayage"))
	require.NoError(t, mw.WriteField("tags", "color, blonde,"))
	fw, err := mw.CreateFormFile("file", "after.png")
	require.NoError(t, err)
	_, err = fw.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/portfolio", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req = req.WithContext(common.WithIdentity(req.Context(), uuid.New(), tenantID))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	svc := &MockPortfolioService{}
	var uploaded []byte
	svc.On("Upload", mock.Anything, tenantID, mock.MatchedBy(func(u *services.PortfolioUpload) bool {
		return u.ContentType == "image/png" && u.Title == "Balayage" && u.Description == nil &&
			len(u.Tags) == 2 && u.Size == int64(len(png))
	})).Run(func(args mock.Arguments) {
		uploaded, _ = io.ReadAll(args.Get(2).(*services.PortfolioUpload).Body)
	}).Return(&models.PortfolioItem{ID: uuid.New(), Title: "Balayage"}, nil)

	require.NoError(t, NewPortfolioHandlers(svc).UploadPortfolioItem(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, png, uploaded)
}

func TestUploadPortfolioItem_MissingFile(t *testing.T) {
	c, rec := newRequest(echo.New(), http.MethodPost, "/v1/portfolio", jsonBody(`{}`), uuid.New(), uuid.New())

	require.NoError(t, NewPortfolioHandlers(&MockPortfolioService{}).UploadPortfolioItem(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Details, "file")
}
