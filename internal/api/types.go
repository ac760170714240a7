package api

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type InstanceResponse struct {
	Name        string    `json:"name"`
	Running     bool      `json:"running"`
	Version     string    `json:"version,omitempty"`
	Description string    `json:"description,omitempty"`
	PID         int       `json:"pid,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	ExitedAt    time.Time `json:"exited_at,omitempty"`
	ExitCode    int       `json:"exit_code,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LogPath     string    `json:"log_path,omitempty"`
}

type ListResponse struct {
	Instances []InstanceResponse `json:"instances"`
}
