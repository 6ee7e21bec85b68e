package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskit/internal/handlers/dto"
	"taskit/internal/logger"
	"taskit/internal/service"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	Location    *time.Location
}

func NewTaskHandler(taskService TaskService, defaultLocation *time.Location) TaskHandler {
	if defaultLocation == nil {
		defaultLocation = time.Local
	}
	return TaskHandler{
		TaskService: taskService,
		Location:    defaultLocation,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: health check failed", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("service", "taskit"),
			toPayload("status", "unavailable"))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("service", "taskit"),
		toPayload("status", "ok"))
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	groups, err := s.TaskService.ListActive(r.Context(), user.UserID, r.URL.Query().Get("q"), clientLocation(r, s.Location))
	if err != nil {
		handleServiceError(w, r, err, "list_tasks", start)
		return
	}

	logger.Info("HTTP_OUT: tasks listed",
		zap.Int("groups", len(groups)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("groups", dto.FromGroups(groups)))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), user.UserID, service.CreateTaskInput{
		Title:                request.Title,
		Description:          request.Description,
		DueDate:              request.DueDate,
		DueTime:              request.DueTime,
		Tag:                  request.Tag,
		NotificationsEnabled: request.NotificationsEnabled,
	}, clientLocation(r, s.Location))
	if err != nil {
		handleServiceError(w, r, err, "create_task", start)
		return
	}

	logger.Info("HTTP_OUT: task created",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(created)))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	t, err := s.TaskService.GetTask(r.Context(), user.UserID, id)
	if err != nil {
		handleServiceError(w, r, err, "get_task", start)
		return
	}

	logger.Info("HTTP_OUT: task fetched",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid update parameters: "+err.Error())
		return
	}
	if request.Empty() {
		responseWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), user.UserID, id, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task", start)
		return
	}

	logger.Info("HTTP_OUT: task updated",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(updated)))
}

func (s *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	toggled, err := s.TaskService.ToggleComplete(r.Context(), user.UserID, id)
	if err != nil {
		handleServiceError(w, r, err, "toggle_task", start)
		return
	}

	logger.Info("HTTP_OUT: task toggled",
		zap.String("task_id", id.String()),
		zap.Bool("completed", toggled.Completed),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(toggled)))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), user.UserID, id); err != nil {
		handleServiceError(w, r, err, "delete_task", start)
		return
	}

	logger.Info("HTTP_OUT: task deleted",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	responseWithJSON(w, http.StatusNoContent)
}

func (s *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	d, err := s.TaskService.Dashboard(r.Context(), user.UserID, clientLocation(r, s.Location))
	if err != nil {
		handleServiceError(w, r, err, "dashboard", start)
		return
	}

	logger.Info("HTTP_OUT: dashboard built",
		zap.Int("overdue", len(d.Overdue)),
		zap.Int("today", len(d.Today)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("dashboard", dto.FromDashboard(d)))
}

// Calendar expects ?month=YYYY-MM and defaults to the current month.
func (s *TaskHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	loc := clientLocation(r, s.Location)
	month := time.Now().In(loc)
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, loc)
		if err != nil {
			logger.Warn("HTTP: invalid query parameter",
				zap.String("query", "month"),
				zap.String("value", raw),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "month must be in YYYY-MM format")
			return
		}
		month = parsed
	}

	groups, err := s.TaskService.Calendar(r.Context(), user.UserID, month, loc)
	if err != nil {
		handleServiceError(w, r, err, "calendar", start)
		return
	}

	logger.Info("HTTP_OUT: calendar built",
		zap.String("month", month.Format("2006-01")),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("month", month.Format("2006-01")),
		toPayload("days", dto.FromGroups(groups)))
}
