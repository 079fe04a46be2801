package client

import "time"

// Task is a user-owned resource as reported by the server. A Task with an
// empty ID has not been confirmed by the server yet and must not be
// treated as durable.
type Task struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// TaskFields carries a partial mutation of a Task. Nil fields are left
// untouched by the server.
type TaskFields struct {
	Title     *string `json:"title,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply overlays the set fields onto a Task.
func (f TaskFields) Apply(t *Task) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Notes != nil {
		t.Notes = *f.Notes
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
}

// User identifies the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// RegisterResponse is returned from POST /auth/register.
type RegisterResponse struct {
	User User `json:"user"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	User      User      `json:"user"`
}

// ListTasksResponse is returned from GET /tasks.
type ListTasksResponse struct {
	Tasks []Task `json:"tasks"`
}

// ErrorResponse is the wire shape of a non-2xx API response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
