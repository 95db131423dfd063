// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/coursecast/internal/export"
	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ScoreHandler holds all HTTP handlers for the scoreboard API.
type ScoreHandler struct {
	courses     *service.CourseService
	tournaments *service.TournamentService
	teams       *service.TeamService
	scoreboards *service.ScoreboardService
	logger      *slog.Logger
}

// NewScoreHandler constructs a ScoreHandler.
func NewScoreHandler(
	courses *service.CourseService,
	tournaments *service.TournamentService,
	teams *service.TeamService,
	scoreboards *service.ScoreboardService,
	logger *slog.Logger,
) *ScoreHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreHandler{
		courses:     courses,
		tournaments: tournaments,
		teams:       teams,
		scoreboards: scoreboards,
		logger:      logger,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unclassified errors are logged and answered with a generic message.
func (h *ScoreHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), fallback,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// ─── Courses ──────────────────────────────────────────────────────────────────

// ListCourses handles GET /courses
// Returns the id and name of every course, for pickers.
func (h *ScoreHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.ListCourseSummaries(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list courses")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if courses == nil {
		courses = []model.CourseSummary{}
	}

	writeJSON(w, http.StatusOK, courses)
}

// ListAllCourses handles GET /courses/all
// Returns every course with its full par layout.
func (h *ScoreHandler) ListAllCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.ListCourses(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list courses")
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

// CreateCourse handles POST /courses
func (h *ScoreHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	course, err := h.courses.CreateCourse(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create course")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"course": course})
}

// ─── Tournaments ──────────────────────────────────────────────────────────────

// CreateTournament handles POST /tournaments
// Creates a tournament on an existing course and returns both access codes.
func (h *ScoreHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTournamentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.tournaments.CreateTournament(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create tournament")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ValidateCode handles POST /tournaments/validate
// Accepts either the join code or the admin code.
func (h *ScoreHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.tournaments.ValidateCode(r.Context(), req.Code)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to validate code")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ─── Teams ────────────────────────────────────────────────────────────────────

// CheckTeam handles POST /teams/check
func (h *ScoreHandler) CheckTeam(w http.ResponseWriter, r *http.Request) {
	var req model.TeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.teams.CheckTeam(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to check team")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// RejoinTeam handles POST /teams/rejoin
// Trades a team's rejoin code for a fresh team session.
func (h *ScoreHandler) RejoinTeam(w http.ResponseWriter, r *http.Request) {
	var req model.RejoinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.teams.RejoinTeam(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to rejoin team")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateTeam handles POST /teams
// Registers a team in the tournament; names are unique per tournament.
func (h *ScoreHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req model.TeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.teams.CreateTeam(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create team")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UpdateScore handles POST /teams/update-score
// Records one hole for the team named in the body. Requires a session.
func (h *ScoreHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	team, err := h.teams.UpdateScore(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update score")
		return
	}

	writeJSON(w, http.StatusOK, model.TeamResponse{Team: team})
}

// ─── Scoreboard ───────────────────────────────────────────────────────────────

// GetScoreboard handles GET /tournaments/{code}/scoreboard
func (h *ScoreHandler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	sb, err := h.scoreboards.GetScoreboard(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load scoreboard")
		return
	}
	if sb.Teams == nil {
		sb.Teams = []model.Standing{}
	}

	writeJSON(w, http.StatusOK, sb)
}

// ExportScoreboard handles GET /tournaments/{code}/scoreboard.xlsx
// The workbook is rendered into memory first so a failure still gets a
// JSON error instead of a truncated download.
func (h *ScoreHandler) ExportScoreboard(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sb, err := h.scoreboards.GetScoreboard(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load scoreboard")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteScoreboard(&buf, sb); err != nil {
		h.writeServiceError(w, r, err, "failed to export scoreboard")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scoreboard-%s.xlsx"`, sb.Tournament.Code))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
