package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListTasks handles GET /tasks. Tasks are scoped to the caller and
// reported newest first.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	s.mu.RLock()
	records := s.tasks[uid]
	tasks := make([]TaskResponse, len(records))
	for i, rec := range records {
		tasks[i] = rec.response()
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, ListTasksResponse{Tasks: tasks})
}

// CreateTask handles POST /tasks. The server assigns the id and the
// creation timestamp.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[TaskFields](w, r)
	if !ok {
		return
	}
	if req.Title == nil || *req.Title == "" {
		writeFieldErrors(w, map[string]string{"title": "title is required"})
		return
	}

	rec := taskRecord{
		ID:        uuid.NewString(),
		Title:     *req.Title,
		CreatedAt: s.now().UTC(),
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if req.Completed != nil {
		rec.Completed = *req.Completed
	}

	uid := userID(r)
	s.mu.Lock()
	s.tasks[uid] = append([]taskRecord{rec}, s.tasks[uid]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, rec.response())
}

// UpdateTask handles PATCH /tasks/{taskID}. Unset fields keep their
// stored values.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[TaskFields](w, r)
	if !ok {
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeFieldErrors(w, map[string]string{"title": "title must not be empty"})
		return
	}

	uid := userID(r)
	taskID := chi.URLParam(r, "taskID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.tasks[uid] {
		if rec.ID != taskID {
			continue
		}
		if req.Title != nil {
			rec.Title = *req.Title
		}
		if req.Notes != nil {
			rec.Notes = *req.Notes
		}
		if req.Completed != nil {
			rec.Completed = *req.Completed
		}
		s.tasks[uid][i] = rec
		writeJSON(w, http.StatusOK, rec.response())
		return
	}
	writeError(w, http.StatusNotFound, "task not found")
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	taskID := chi.URLParam(r, "taskID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.tasks[uid] {
		if rec.ID != taskID {
			continue
		}
		s.tasks[uid] = append(s.tasks[uid][:i], s.tasks[uid][i+1:]...)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeError(w, http.StatusNotFound, "task not found")
}
