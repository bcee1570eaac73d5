package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/common/validation"
	"growth-forecast/internal/models"
	"growth-forecast/internal/orchestrator"
)

const pingTimeout = 3 * time.Second

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// ready pings every dependency; any failure turns the whole response into a 503.
func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	names := make([]string, 0, len(h.pingers))
	for name := range h.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	status := http.StatusOK
	for _, name := range names {
		if err := h.pingers[name].Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   h.now().Format(time.RFC3339),
	})
}

func (h *handlers) generateImage(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	if res := validation.ImageRequestSchema.ValidateJSON(raw); !res.Valid {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		h.logger.Warn("image request rejected", map[string]interface{}{"violations": res.Summary()})
		return
	}

	var req orchestrator.ImageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeStandardError(w, errors.NewInvalidRequestError(err.Error()))
		return
	}

	imageURL, err := h.pipeline.GenerateImage(r.Context(), req)
	if err != nil {
		h.logger.Error("image generation failed", map[string]interface{}{
			"error":     err.Error(),
			"requestId": requestID(r),
		})
		writeStandardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": imageURL})
}

func (h *handlers) createPrediction(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	var subject models.SubjectProfile
	if err := json.Unmarshal(raw, &subject); err != nil {
		writeStandardError(w, errors.NewInvalidRequestError("invalid json: "+err.Error()))
		return
	}

	result, err := h.pipeline.Run(r.Context(), subject)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type ratingRequest struct {
	Rating models.Rating `json:"rating"`
}

type feedbackResponse struct {
	RecordID string `json:"recordId"`
}

func (h *handlers) ratePrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := recordParam(w, r)
	if !ok {
		return
	}
	raw, err := readBody(w, r)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	if res := validation.RatingSchema.ValidateJSON(raw); !res.Valid {
		writeStandardError(w, errors.NewInvalidRequestError(res.Summary()))
		return
	}
	var req ratingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeStandardError(w, errors.NewInvalidRequestError(err.Error()))
		return
	}

	landed, err := h.pipeline.Rate(r.Context(), id, req.Rating)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{RecordID: landed.String()})
}

func (h *handlers) correctPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := recordParam(w, r)
	if !ok {
		return
	}
	raw, err := readBody(w, r)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	var c models.Correction
	if err := json.Unmarshal(raw, &c); err != nil {
		writeStandardError(w, errors.NewInvalidRequestError("invalid json: "+err.Error()))
		return
	}

	landed, err := h.pipeline.Correct(r.Context(), id, c)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{RecordID: landed.String()})
}

func (h *handlers) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="prediction-log.csv"`)
	if err := h.exporter.ExportCSV(w); err != nil {
		h.logger.Error("csv export failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *handlers) exportSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.exporter.Summary())
}

func recordParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		writeStandardError(w, errors.NewInvalidRequestError("record id is required"))
		return "", false
	}
	return id, true
}

func requestID(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}
