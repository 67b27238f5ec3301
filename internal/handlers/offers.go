package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"marketplace/internal/errs"
	"marketplace/internal/service"
	"marketplace/internal/validation"
	"marketplace/models"
)

type PaginationParams struct {
	Page     int
	PageSize int
}

// parsePaginationParams парсит page и page_size из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{Page: 1, PageSize: service.DefaultOfferPageSize}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			return params, errs.NewNotFoundError("Invalid page.", true, nil)
		}
		params.Page = p
	}
	if sizeStr := r.URL.Query().Get("page_size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
			params.PageSize = min(s, service.MaxOfferPageSize)
		}
	}
	return params, nil
}

// parseOfferFilter читает фильтры списка предложений из query
func parseOfferFilter(r *http.Request) (models.OfferFilter, error) {
	q := r.URL.Query()
	var f models.OfferFilter

	if v := q.Get("creator_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errs.NewFieldError("creator_id", "Enter a whole number.")
		}
		f.CreatorID = &id
	}
	if v := q.Get("min_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return f, errs.NewFieldError("min_price", "Enter a number.")
		}
		f.MinPrice = &price
	}
	if v := q.Get("max_delivery_time"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return f, errs.NewFieldError("max_delivery_time", "Enter a whole number.")
		}
		f.MaxDeliveryTime = &days
	}
	f.Search = q.Get("search")
	f.Ordering = q.Get("ordering")
	return f, nil
}

// pageURL - ссылка на соседнюю страницу с теми же фильтрами
func pageURL(r *http.Request, pageNum int) *string {
	q := r.URL.Query()
	if pageNum == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(pageNum))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	link := baseURL(r) + u.String()
	return &link
}

// GetOffersHandler обрабатывает GET /api/offers/
func (h *Handler) GetOffersHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parsePaginationParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := parseOfferFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Limit = params.PageSize
	filter.Offset = (params.Page - 1) * params.PageSize

	offers, total, err := h.Service.ListOffers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// первая страница существует всегда, даже пустая
	if params.Page > 1 && filter.Offset >= total {
		writeError(w, r, errs.NewNotFoundError("Invalid page.", true, nil))
		return
	}

	resp := page[offerListItem]{Count: total, Results: make([]offerListItem, 0, len(offers))}
	for i := range offers {
		resp.Results = append(resp.Results, newOfferListItem(r, &offers[i]))
	}
	if filter.Offset+len(offers) < total {
		resp.Next = pageURL(r, params.Page+1)
	}
	if params.Page > 1 {
		resp.Previous = pageURL(r, params.Page-1)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateOfferHandler обрабатывает POST /api/offers/
func (h *Handler) CreateOfferHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.CreateOfferInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	offer, err := h.Service.CreateOffer(r.Context(), p, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOfferWriteView(offer))
}

// GetOfferHandler обрабатывает GET /api/offers/{offerId}/
func (h *Handler) GetOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID, err := pathID(r, "offerId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	offer, err := h.Service.GetOffer(r.Context(), offerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOfferView(r, offer))
}

// EditOfferHandler обрабатывает PATCH /api/offers/{offerId}/
func (h *Handler) EditOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID, err := pathID(r, "offerId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.UpdateOfferInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	offer, err := h.Service.UpdateOffer(r.Context(), p, offerID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOfferWriteView(offer))
}

// DeleteOfferHandler обрабатывает DELETE /api/offers/{offerId}/
func (h *Handler) DeleteOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID, err := pathID(r, "offerId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Service.DeleteOffer(r.Context(), principal(r), offerID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOfferDetailHandler обрабатывает GET /api/offerdetails/{detailId}/
func (h *Handler) GetOfferDetailHandler(w http.ResponseWriter, r *http.Request) {
	detailID, err := pathID(r, "detailId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.Service.GetOfferDetail(r.Context(), principal(r), detailID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOfferDetailView(detail))
}
