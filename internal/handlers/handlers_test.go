package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskit/internal/auth"
	"taskit/internal/blob"
	"taskit/internal/duestate"
	"taskit/internal/handlers"
	"taskit/internal/models/notification"
	"taskit/internal/models/task"
	"taskit/internal/service"
	"taskit/internal/timestamp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, userID string, in service.CreateTaskInput, loc *time.Location) (*task.Task, error) {
	args := m.Called(ctx, userID, in, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, userID string, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, userID, id, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, userID string, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockTaskService) ToggleComplete(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListActive(ctx context.Context, userID, query string, loc *time.Location) ([]duestate.DayGroup, error) {
	args := m.Called(ctx, userID, query, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]duestate.DayGroup), args.Error(1)
}

func (m *MockTaskService) Dashboard(ctx context.Context, userID string, loc *time.Location) (duestate.Dashboard, error) {
	args := m.Called(ctx, userID, loc)
	return args.Get(0).(duestate.Dashboard), args.Error(1)
}

func (m *MockTaskService) Calendar(ctx context.Context, userID string, month time.Time, loc *time.Location) ([]duestate.DayGroup, error) {
	args := m.Called(ctx, userID, month, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]duestate.DayGroup), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID string, loc *time.Location) (service.Feed, error) {
	args := m.Called(ctx, userID, loc)
	return args.Get(0).(service.Feed), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, userID string) (auth.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(auth.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, userID string, update auth.ProfileUpdate) (auth.Profile, error) {
	args := m.Called(ctx, userID, update)
	return args.Get(0).(auth.Profile), args.Error(1)
}

func (m *MockProfileService) UploadAvatar(ctx context.Context, userID string, r io.Reader) (auth.Profile, error) {
	args := m.Called(ctx, userID, r)
	return args.Get(0).(auth.Profile), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, displayName string) (*auth.Token, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*auth.Token, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Refresh(ctx context.Context, token string) (*auth.Token, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Token), args.Error(1)
}

type stubBlobs struct {
	data map[string]string
}

func (s stubBlobs) Open(key string) (io.ReadSeekCloser, string, error) {
	body, ok := s.data[key]
	if !ok {
		return nil, "", blob.ErrNotFound
	}
	return nopSeekCloser{strings.NewReader(body)}, "image/png", nil
}

type nopSeekCloser struct{ *strings.Reader }

func (nopSeekCloser) Close() error { return nil }

// newRequest attaches the identity and chi route params the router would set.
func newRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = auth.WithIdentity(ctx, auth.Identity{UserID: testUser, SessionID: "s-1"})
	return req.WithContext(ctx)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func sampleTask(id uuid.UUID) *task.Task {
	return &task.Task{
		UUID:      id,
		UserID:    testUser,
		Title:     "Write report",
		DueDate:   "2026-10-18",
		DueTime:   "09:00",
		Tag:       "work",
		CreatedAt: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC),
		Version:   1,
	}
}

func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("database unreachable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			handler := handlers.NewTaskHandler(mockService, time.UTC)

			w := httptest.NewRecorder()
			handler.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "taskit")
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_PostTask(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - create task",
			requestBody: `{"title":"Write report","due_date":"2026-10-18","due_time":"09:00","tag":"work"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, testUser, service.CreateTaskInput{
					Title:   "Write report",
					DueDate: "2026-10-18",
					DueTime: "09:00",
					Tag:     "work",
				}, time.UTC).Return(sampleTask(taskID), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - validation",
			requestBody: `{"title":"","due_date":"2026-10-18"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, testUser, mock.Anything, time.UTC).
					Return(nil, service.NewValidationError("title", "must not be empty"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - service error",
			requestBody: `{"title":"Write report","due_date":"2026-10-18"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, testUser, mock.Anything, time.UTC).
					Return(nil, errors.New("storage down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			handler := handlers.NewTaskHandler(mockService, time.UTC)

			req := newRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.requestBody), nil)
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.PostTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				body := decode(t, w)
				assert.Contains(t, string(body["task"]), taskID.String())
				assert.Contains(t, string(body["task"]), `"title":"Write report"`)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_PostTask_RequiresIdentity(t *testing.T) {
	mockService := new(MockTaskService)
	handler := handlers.NewTaskHandler(mockService, time.UTC)

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.PostTask(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	mockService.AssertNotCalled(t, "CreateTask")
}

func TestTaskHandler_GetTaskByID(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, testUser, taskID).Return(sampleTask(taskID), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid UUID",
			taskID:         "invalid-uuid",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, testUser, taskID).
					Return(nil, service.NewNotFound(service.ResourceTask, taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - service error",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, testUser, taskID).Return(nil, errors.New("internal error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			handler := handlers.NewTaskHandler(mockService, time.UTC)

			req := newRequest(http.MethodGet, "/tasks/"+tt.taskID, nil, map[string]string{"id": tt.taskID})
			w := httptest.NewRecorder()

			handler.GetTaskByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var body struct {
					Task struct {
						ID    string `json:"id"`
						Title string `json:"title"`
					} `json:"task"`
				}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, taskID.String(), body.Task.ID)
				assert.Equal(t, "Write report", body.Task.Title)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - update title",
			requestBody: `{"title":"Write final report"}`,
			setupMock: func(m *MockTaskService) {
				updated := sampleTask(taskID)
				updated.Title = "Write final report"
				updated.Version = 2
				m.On("UpdateTask", mock.Anything, testUser, taskID, mock.Anything).Return(updated, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - nothing to update",
			requestBody:    `{}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - version conflict",
			requestBody: `{"title":"Write final report"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, testUser, taskID, mock.Anything).
					Return(nil, service.NewVersionConflict(service.ResourceTask, taskID.String(), nil))
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			handler := handlers.NewTaskHandler(mockService, time.UTC)

			req := newRequest(http.MethodPut, "/tasks/"+taskID.String(), bytes.NewBufferString(tt.requestBody),
				map[string]string{"id": taskID.String()})
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateTaskByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_ToggleAndDelete(t *testing.T) {
	taskID := uuid.New()
	params := map[string]string{"id": taskID.String()}

	t.Run("toggle", func(t *testing.T) {
		mockService := new(MockTaskService)
		done := sampleTask(taskID)
		done.Completed = true
		mockService.On("ToggleComplete", mock.Anything, testUser, taskID).Return(done, nil)
		handler := handlers.NewTaskHandler(mockService, time.UTC)

		w := httptest.NewRecorder()
		handler.ToggleTask(w, newRequest(http.MethodPost, "/tasks/x/toggle", nil, params))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"completed":true`)
		mockService.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteTask", mock.Anything, testUser, taskID).Return(nil)
		handler := handlers.NewTaskHandler(mockService, time.UTC)

		w := httptest.NewRecorder()
		handler.DeleteTaskByID(w, newRequest(http.MethodDelete, "/tasks/x", nil, params))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("delete - cancelled request", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteTask", mock.Anything, testUser, taskID).Return(context.Canceled)
		handler := handlers.NewTaskHandler(mockService, time.UTC)

		w := httptest.NewRecorder()
		handler.DeleteTaskByID(w, newRequest(http.MethodDelete, "/tasks/x", nil, params))

		assert.Equal(t, handlers.StatusClientClosedRequest, w.Code)
	})
}

func TestTaskHandler_ListTasks_UsesClientTimezone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	mockService := new(MockTaskService)
	groups := []duestate.DayGroup{{
		Date: "2026-10-18",
		Tasks: []duestate.Entry{{
			Task:           sampleTask(uuid.New()),
			Classification: duestate.Classification{Day: duestate.DayTomorrow, Reminder: duestate.ReminderWithin24h, Label: "Due in 23 hours"},
		}},
	}}
	mockService.On("ListActive", mock.Anything, testUser, "report", mock.MatchedBy(func(loc *time.Location) bool {
		return loc.String() == berlin.String()
	})).Return(groups, nil)
	handler := handlers.NewTaskHandler(mockService, time.UTC)

	req := newRequest(http.MethodGet, "/tasks?q=report", nil, nil)
	req.Header.Set(handlers.TimezoneHeader, "Europe/Berlin")
	w := httptest.NewRecorder()

	handler.ListTasks(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Groups []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
			Tasks []struct {
				Day   string `json:"day"`
				Label string `json:"label"`
			} `json:"tasks"`
		} `json:"groups"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "2026-10-18", body.Groups[0].Date)
	assert.Equal(t, 1, body.Groups[0].Count)
	assert.Equal(t, "tomorrow", body.Groups[0].Tasks[0].Day)
	mockService.AssertExpectations(t)
}

func TestTaskHandler_Calendar(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:  "success - explicit month",
			query: "?month=2026-11",
			setupMock: func(m *MockTaskService) {
				m.On("Calendar", mock.Anything, testUser,
					time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), time.UTC).
					Return([]duestate.DayGroup{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - malformed month",
			query:          "?month=11-2026",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			handler := handlers.NewTaskHandler(mockService, time.UTC)

			w := httptest.NewRecorder()
			handler.Calendar(w, newRequest(http.MethodGet, "/calendar"+tt.query, nil, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestNotificationHandler_List(t *testing.T) {
	mockService := new(MockNotificationService)
	at := time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)
	feed := service.Feed{
		Items: []notification.Notification{
			{ID: "task-1-1day", Title: "Task Due Soon", Timestamp: timestamp.FromTime(at), Synthesized: true},
			{ID: "n-2", Title: "New Task", Timestamp: timestamp.Value{}},
		},
		Unread: 2,
	}
	mockService.On("List", mock.Anything, testUser, time.UTC).Return(feed, nil)
	handler := handlers.NewNotificationHandler(mockService, time.UTC)

	w := httptest.NewRecorder()
	handler.ListNotifications(w, newRequest(http.MethodGet, "/notifications", nil, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items []struct {
			ID      string `json:"id"`
			Display string `json:"display_time"`
		} `json:"items"`
		Unread int `json:"unread"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Oct 17, 2026, 2:30 PM", body.Items[0].Display)
	assert.Equal(t, timestamp.Unknown, body.Items[1].Display)
	assert.Equal(t, 2, body.Unread)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "success", expectedStatus: http.StatusNoContent},
		{name: "not found", err: service.NewNotFound(service.ResourceNotification, "n-1"), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockNotificationService)
			mockService.On("MarkRead", mock.Anything, testUser, "n-1").Return(tt.err)
			handler := handlers.NewNotificationHandler(mockService, time.UTC)

			w := httptest.NewRecorder()
			handler.MarkRead(w, newRequest(http.MethodPost, "/notifications/n-1/read", nil, map[string]string{"id": "n-1"}))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_SignUp(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "success", expectedStatus: http.StatusCreated},
		{name: "email taken", err: auth.ErrEmailTaken, expectedStatus: http.StatusConflict, expectedCode: "EMAIL_TAKEN"},
		{name: "weak password", err: &auth.ValidationError{Field: "password", Reason: "too short"}, expectedStatus: http.StatusBadRequest, expectedCode: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := new(MockAuthService)
			var token *auth.Token
			if tt.err == nil {
				token = &auth.Token{Token: "tok", User: auth.Identity{UserID: testUser}}
			}
			mockAuth.On("SignUp", mock.Anything, "a@b.co", "secret1", "Ann").Return(token, tt.err)
			handler := handlers.NewAuthHandler(mockAuth)

			req := httptest.NewRequest(http.MethodPost, "/auth/signup",
				bytes.NewBufferString(`{"email":"a@b.co","password":"secret1","display_name":"Ann"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.SignUp(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
			}
			mockAuth.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_RefreshExpired(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockAuth.On("Refresh", mock.Anything, "old").Return(nil, auth.ErrSessionExpired)
	handler := handlers.NewAuthHandler(mockAuth)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer old")
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_EXPIRED")
}

func TestProfileHandler_UploadAvatar(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockProfiles := new(MockProfileService)
		mockProfiles.On("UploadAvatar", mock.Anything, testUser, mock.Anything).
			Return(auth.Profile{UserID: testUser, PhotoURL: "/blobs/profile-pictures/" + testUser}, nil)
		handler := handlers.NewProfileHandler(mockProfiles, 1024)

		req := avatarRequest(t, bytes.Repeat([]byte{0x89}, 100))
		w := httptest.NewRecorder()

		handler.UploadAvatar(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "profile-pictures")
		mockProfiles.AssertExpectations(t)
	})

	t.Run("too large", func(t *testing.T) {
		mockProfiles := new(MockProfileService)
		handler := handlers.NewProfileHandler(mockProfiles, 1024)

		req := avatarRequest(t, bytes.Repeat([]byte{0x89}, 2048))
		w := httptest.NewRecorder()

		handler.UploadAvatar(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		mockProfiles.AssertNotCalled(t, "UploadAvatar")
	})

	t.Run("wrong content type", func(t *testing.T) {
		handler := handlers.NewProfileHandler(new(MockProfileService), 1024)
		req := newRequest(http.MethodPost, "/profile/avatar", bytes.NewBufferString("{}"), nil)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.UploadAvatar(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func avatarRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := newRequest(http.MethodPost, "/profile/avatar", &buf, nil)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBlobHandler_ServeBlob(t *testing.T) {
	handler := handlers.NewBlobHandler(stubBlobs{data: map[string]string{"profile-pictures/u1": "png-bytes"}})

	w := httptest.NewRecorder()
	handler.ServeBlob(w, newRequest(http.MethodGet, "/blobs/profile-pictures/u1", nil, map[string]string{"*": "profile-pictures/u1"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())

	w = httptest.NewRecorder()
	handler.ServeBlob(w, newRequest(http.MethodGet, "/blobs/missing", nil, map[string]string{"*": "missing"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
