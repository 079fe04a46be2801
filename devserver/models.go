package devserver

import "time"

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// RegisterResponse is returned from POST /auth/register.
type RegisterResponse struct {
	User UserResponse `json:"user"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /auth/login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse describes an account in API responses.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TaskFields is the JSON body for POST /tasks and PATCH /tasks/{taskID}.
// Nil fields are left untouched.
type TaskFields struct {
	Title     *string `json:"title,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TaskResponse describes a task in API responses.
type TaskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTasksResponse is returned from GET /tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// ErrorResponse is the wire shape of a non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

type sessionRecord struct {
	UserID    string
	ExpiresAt time.Time
}

type taskRecord struct {
	ID        string
	Title     string
	Notes     string
	Completed bool
	CreatedAt time.Time
}

func (t taskRecord) response() TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Notes:     t.Notes,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
}
