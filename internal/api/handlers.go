package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/faradayfan/mcserver-panel/internal/manager"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.rt.FolderList()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListResponse{Instances: make([]InstanceResponse, 0, len(names))}
	for _, name := range names {
		resp.Instances = append(resp.Instances, s.describe(r, name))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name, ok := s.instance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.describe(r, name))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	name, ok := s.instance(w, r)
	if !ok {
		return
	}

	if err := s.rt.OpenServer(name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, manager.ErrAlreadyRunning) {
			status = http.StatusConflict
		}
		writeJSON(w, status, withError(s.describe(r, name), err))
		return
	}
	writeJSON(w, http.StatusOK, s.describe(r, name))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	name, ok := s.instance(w, r)
	if !ok {
		return
	}

	if err := s.rt.StopServer(r.Context(), name); err != nil {
		writeJSON(w, http.StatusConflict, withError(s.describe(r, name), err))
		return
	}
	writeJSON(w, http.StatusOK, s.describe(r, name))
}

func (s *Server) instance(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := mux.Vars(r)["name"]
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing instance name")
		return "", false
	}
	if !s.rt.Exists(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown instance: %s", name))
		return "", false
	}
	return name, true
}

func (s *Server) describe(r *http.Request, name string) InstanceResponse {
	st := s.rt.Mgr.Status(name)
	resp := InstanceResponse{
		Name:      name,
		PID:       st.PID,
		StartedAt: st.StartedAt,
		ExitedAt:  st.ExitedAt,
		ExitCode:  st.ExitCode,
		LastError: st.LastError,
		LogPath:   s.rt.LogPath(name),
	}

	log := s.log.WithField("instance", name)
	if running, err := s.rt.IsRunning(r.Context(), name); err != nil {
		log.Debugf("status: %v", err)
	} else {
		resp.Running = running
	}
	if v, err := s.rt.ServerVersion(name); err == nil {
		resp.Version = v
	}
	if d, err := s.rt.Description(name); err == nil {
		resp.Description = d
	}
	return resp
}

func withError(resp InstanceResponse, err error) InstanceResponse {
	resp.LastError = err.Error()
	return resp
}
