package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"geoattend/internal/attendance"
	"geoattend/internal/attendance/handler/mocks"
	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
	"geoattend/pkg/testutil"
)

type AttendanceHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	userID  id.UserID
}

func TestAttendanceHandlerSuite(t *testing.T) {
	suite.Run(t, new(AttendanceHandlerSuite))
}

func (s *AttendanceHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.userID = id.NewUserID()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger)

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *AttendanceHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AttendanceHandlerSuite) do(method, target string, body []byte, authenticated bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if authenticated {
		req = testutil.WithUserID(req, s.userID.String())
	}
	return testutil.DoRequest(s.router, req)
}

func (s *AttendanceHandlerSuite) sampleRecord(status attendance.Status, reason string) *attendance.Record {
	zoneID := id.NewGeofenceID()
	return &attendance.Record{
		ID:               id.NewAttendanceID(),
		UserID:           s.userID,
		GeofenceID:       &zoneID,
		Coordinate:       geo.Coordinate{Lat: 52.52, Lon: 13.405},
		ServerReceivedAt: time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC),
		Method:           attendance.DefaultMethod,
		Status:           status,
		Reason:           reason,
		RawPayloadHash:   "abc123",
	}
}

func (s *AttendanceHandlerSuite) TestCheckin_Accepted() {
	body := []byte(`{"lat": 52.52, "lon": 13.405}`)
	record := s.sampleRecord(attendance.StatusAccepted, attendance.ReasonAccepted)

	s.service.EXPECT().
		CheckIn(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event attendance.CheckinEvent) (*attendance.Record, error) {
			s.Equal(s.userID, event.UserID)
			s.Equal(52.52, event.Coordinate.Lat)
			s.Equal(string(body), event.RawPayload)
			s.Empty(event.Method, "default method is applied by the service")
			return record, nil
		})

	w := s.do(http.MethodPost, "/attendance/checkin", body, true)

	s.Equal(http.StatusCreated, w.Code)
	var resp RecordResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("ACCEPTED", resp.Status)
	s.Equal(attendance.ReasonAccepted, resp.Reason)
	s.Equal(record.ID.String(), resp.ID)
	s.Require().NotNil(resp.GeofenceID)
}

func (s *AttendanceHandlerSuite) TestCheckin_DuplicateConflict() {
	s.service.EXPECT().
		CheckIn(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, attendance.ReasonDuplicate))

	w := s.do(http.MethodPost, "/attendance/checkin", []byte(`{"lat": 1, "lon": 1}`), true)

	s.Equal(http.StatusConflict, w.Code)
	testutil.AssertErrorCode(s.T(), w, "conflict")
	var resp map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(attendance.ReasonDuplicate, resp["error_description"])
}

func (s *AttendanceHandlerSuite) TestCheckin_Unauthenticated() {
	w := s.do(http.MethodPost, "/attendance/checkin", []byte(`{"lat": 1, "lon": 1}`), false)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AttendanceHandlerSuite) TestCheckin_ValidationFailures() {
	cases := map[string]struct {
		body       string
		wantStatus int
	}{
		"missing coordinates": {`{}`, http.StatusUnprocessableEntity},
		"latitude range":      {`{"lat": 123, "lon": 0}`, http.StatusUnprocessableEntity},
		"negative accuracy":   {`{"lat": 1, "lon": 1, "accuracy": -3}`, http.StatusUnprocessableEntity},
		"bad device time":     {`{"lat": 1, "lon": 1, "device_time": "yesterday"}`, http.StatusUnprocessableEntity},
		"malformed json":      {`{"lat": `, http.StatusBadRequest},
	}

	for name, tc := range cases {
		s.Run(name, func() {
			w := s.do(http.MethodPost, "/attendance/checkin", []byte(tc.body), true)
			s.Equal(tc.wantStatus, w.Code)
		})
	}
}

func (s *AttendanceHandlerSuite) TestMyHistory() {
	records := []*attendance.Record{
		s.sampleRecord(attendance.StatusAccepted, attendance.ReasonAccepted),
		s.sampleRecord(attendance.StatusOutside, attendance.ReasonOutside),
	}
	s.service.EXPECT().History(gomock.Any(), s.userID).Return(records, nil)

	w := s.do(http.MethodGet, "/attendance/my-history", nil, true)

	s.Equal(http.StatusOK, w.Code)
	var resp HistoryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(2, resp.Count)
	s.Len(resp.Records, 2)
}

func (s *AttendanceHandlerSuite) TestGet() {
	s.Run("own record is returned", func() {
		record := s.sampleRecord(attendance.StatusFlagged, attendance.ReasonOutsideWindow)
		s.service.EXPECT().Get(gomock.Any(), record.ID).Return(record, nil)

		w := s.do(http.MethodGet, "/attendance/"+record.ID.String(), nil, true)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("foreign record reads as not found", func() {
		record := s.sampleRecord(attendance.StatusAccepted, attendance.ReasonAccepted)
		record.UserID = id.NewUserID()
		s.service.EXPECT().Get(gomock.Any(), record.ID).Return(record, nil)

		w := s.do(http.MethodGet, "/attendance/"+record.ID.String(), nil, true)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("malformed id rejected", func() {
		w := s.do(http.MethodGet, "/attendance/not-a-uuid", nil, true)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *AttendanceHandlerSuite) TestListAll() {
	s.service.EXPECT().ListAll(gomock.Any()).Return(nil, nil)

	w := s.do(http.MethodGet, "/attendance/all", nil, true)

	s.Equal(http.StatusOK, w.Code)
	var resp HistoryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(0, resp.Count)
}
