package handlers

import (
	"net/http"
	"strconv"

	"marketplace/internal/errs"
	"marketplace/internal/service"
	"marketplace/internal/validation"
	"marketplace/models"
)

// parseReviewFilter читает business_user_id, reviewer_id и ordering
func parseReviewFilter(r *http.Request) (models.ReviewFilter, error) {
	q := r.URL.Query()
	f := models.ReviewFilter{Ordering: q.Get("ordering")}

	for name, target := range map[string]**int64{
		"business_user_id": &f.BusinessUserID,
		"reviewer_id":      &f.ReviewerID,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errs.NewFieldError(name, "Enter a whole number.")
		}
		*target = &id
	}
	return f, nil
}

// GetReviewsHandler обрабатывает GET /api/reviews/
func (h *Handler) GetReviewsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	filter, err := parseReviewFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, err := h.Service.ListReviews(r.Context(), p, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// CreateReviewHandler обрабатывает POST /api/reviews/
func (h *Handler) CreateReviewHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.CreateReviewInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.Service.CreateReview(r.Context(), p, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// GetReviewHandler обрабатывает GET /api/reviews/{reviewId}/
func (h *Handler) GetReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.Service.GetReview(r.Context(), principal(r), reviewID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// EditReviewHandler обрабатывает PATCH /api/reviews/{reviewId}/
func (h *Handler) EditReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.UpdateReviewInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.Service.UpdateReview(r.Context(), p, reviewID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// DeleteReviewHandler обрабатывает DELETE /api/reviews/{reviewId}/
func (h *Handler) DeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Service.DeleteReview(r.Context(), principal(r), reviewID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BaseInfoHandler обрабатывает GET /api/base-info/
func (h *Handler) BaseInfoHandler(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.BaseInfo(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
