package read

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/models"
	"github.com/mkravtsov/subtrack/internal/services/subscription"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, id, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, id, userUID)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

const subID = "7b8e1c1e-9a3f-4a37-b0cf-917cf6b4d1a2"

func newRequest(id, userUID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/"+id, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userUID != "" {
		ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
	}
	return req.WithContext(ctx)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		wantInBody     string
	}{
		{
			name:    "successful read",
			id:      subID,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, subID, "user-1").
					Return(&models.Subscription{ID: subID, Name: "Netflix"}, nil)
			},
			expectedStatus: http.StatusOK,
			wantInBody:     "Netflix",
		},
		{
			name:           "invalid id",
			id:             "not-a-uuid",
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			wantInBody:     "invalid subscription id",
		},
		{
			name:           "missing authentication",
			id:             subID,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			wantInBody:     "unauthorized",
		},
		{
			name:    "not found",
			id:      subID,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, subID, "user-1").
					Return(nil, repository.ErrSubscriptionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			wantInBody:     "subscription not found",
		},
		{
			name:    "other user's subscription reported as not found",
			id:      subID,
			userUID: "user-2",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, subID, "user-2").
					Return(nil, subscription.ErrNotOwner)
			},
			expectedStatus: http.StatusNotFound,
			wantInBody:     "subscription not found",
		},
		{
			name:    "service failure",
			id:      subID,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, subID, "user-1").
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			wantInBody:     "could not read subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newRequest(tt.id, tt.userUID))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantInBody)
			mockService.AssertExpectations(t)
		})
	}
}
