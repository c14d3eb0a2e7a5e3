package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coursesync/syncengine/internal/store"
	"github.com/sirupsen/logrus"
)

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	courses, err := s.store.ListCourses(r.Context(), includeArchived)
	if err != nil {
		logrus.WithError(err).Error("list courses failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req store.NewCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Semester == "" || req.DayOfWeek == "" {
		http.Error(w, "title, semester, and day_of_week are required", http.StatusBadRequest)
		return
	}

	course, err := s.store.InsertCourse(r.Context(), req)
	if err != nil {
		logrus.WithError(err).Error("insert course failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}
