package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/mergington-activities/metrics"
	"github.com/Dosada05/mergington-activities/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
	logger          *slog.Logger
}

func NewActivityHandler(as *services.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: as,
		logger:          loggerOrDefault(logger),
	}
}

// ListActivities godoc
// @Summary List all activities
// @Tags activities
// @Description Returns the full roster keyed by activity name.
// @Produce json
// @Success 200 {object} models.Roster
// @Failure 500 {object} map[string]string "Store could not be read"
// @Router /activities [get]
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	roster, err := h.activityService.ListActivities(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, roster, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// GetActivity godoc
// @Summary Get one activity
// @Tags activities
// @Produce json
// @Param activityName path string true "Activity name"
// @Success 200 {object} models.Activity
// @Failure 404 {object} map[string]string "Activity not found"
// @Router /activities/{activityName} [get]
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activityService.GetActivity(r.Context(), activityNameFromURL(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, activity, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// Signup godoc
// @Summary Sign up a student for an activity
// @Tags activities
// @Produce json
// @Param activityName path string true "Activity name"
// @Param email query string true "Student email"
// @Success 200 {object} models.SignupResult
// @Failure 400 {object} map[string]string "Student is already signed up for this activity"
// @Failure 404 {object} map[string]string "Activity not found"
// @Failure 422 {object} map[string]string "Missing email parameter"
// @Failure 500 {object} map[string]string "Store could not be read or written"
// @Router /activities/{activityName}/signup [post]
func (h *ActivityHandler) Signup(w http.ResponseWriter, r *http.Request) {
	activityName := activityNameFromURL(r)
	// Only an absent parameter is rejected; "?email=" signs up the empty string.
	values, ok := r.URL.Query()["email"]
	if !ok {
		metrics.SignupsTotal.WithLabelValues(metrics.SignupResultInvalid).Inc()
		unprocessableResponse(w, r, h.logger, detailEmailRequired)
		return
	}
	email := values[0]

	result, err := h.activityService.Signup(r.Context(), activityName, email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// Root sends browsers to the static landing page.
func Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
}

// Healthz godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func Healthz(logger *slog.Logger) http.HandlerFunc {
	logger = loggerOrDefault(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"}, nil); err != nil {
			serverErrorResponse(w, r, logger, err)
		}
	}
}
