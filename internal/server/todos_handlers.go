package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coursesync/syncengine/internal/store"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	todos, err := s.store.ListTodos(r.Context(), includeArchived)
	if err != nil {
		logrus.WithError(err).Error("list todos failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req store.NewTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.DueDate == "" || req.CourseID == "" {
		http.Error(w, "title, due_date, and course_id are required", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = store.StatusNotStarted
	}

	if _, err := s.store.GetCourse(r.Context(), req.CourseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "course_id does not reference an existing course", http.StatusBadRequest)
			return
		}
		logrus.WithError(err).Error("get course failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	todo, err := s.store.InsertTodo(r.Context(), req)
	if err != nil {
		logrus.WithError(err).Error("insert todo failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch store.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	todo, err := s.store.UpdateTodo(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "todo not found", http.StatusNotFound)
			return
		}
		logrus.WithError(err).WithField("todo_id", id).Error("update todo failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (s *Server) handleArchiveTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.ArchiveTodo(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "todo not found", http.StatusNotFound)
			return
		}
		logrus.WithError(err).WithField("todo_id", id).Error("archive todo failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnarchiveTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.UnarchiveTodo(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "todo not found", http.StatusNotFound)
			return
		}
		logrus.WithError(err).WithField("todo_id", id).Error("unarchive todo failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
