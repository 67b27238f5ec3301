package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"marketplace/internal/auth"
	"marketplace/internal/handlers"
	"marketplace/internal/handlers/testutils"
	"marketplace/internal/service"
	"marketplace/models"
)

type fixture struct {
	store    *testutils.MemStore
	svc      *service.Service
	handler  *handlers.Handler
	business auth.Principal
	customer auth.Principal
	tokens   map[int64]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutils.NewMemStore()
	svc := service.New(store, zerolog.Nop())
	f := &fixture{store: store, svc: svc, handler: handlers.NewHandler(svc), tokens: map[int64]string{}}
	f.business = f.register(t, "anbieter", models.RoleBusiness)
	f.customer = f.register(t, "kunde", models.RoleCustomer)
	return f
}

func (f *fixture) register(t *testing.T, username string, role models.Role) auth.Principal {
	t.Helper()
	res, err := f.svc.Register(context.Background(), service.RegistrationInput{
		Username: username, Email: username + "@example.com",
		Password: "pw", RepeatedPassword: "pw", Type: string(role),
	})
	require.NoError(t, err)
	p, err := f.svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	f.tokens[p.UserID] = res.Token
	return p
}

const offerBody = `{
    "title": "Grafikdesign-Paket",
    "description": "Ein umfassendes Grafikdesign-Paket",
    "details": [
        {"title": "Basic Design", "revisions": 2, "delivery_time_in_days": 5, "price": 100, "features": ["Logo Design", "Visitenkarte"], "offer_type": "basic"},
        {"title": "Standard Design", "revisions": 5, "delivery_time_in_days": 7, "price": 200, "features": ["Logo Design", "Visitenkarte", "Briefpapier"], "offer_type": "standard"},
        {"title": "Premium Design", "revisions": 10, "delivery_time_in_days": 10, "price": 500, "features": ["Logo Design", "Visitenkarte", "Briefpapier", "Flyer"], "offer_type": "premium"}
    ]
}`

func (f *fixture) createOffer(t *testing.T) *models.Offer {
	t.Helper()
	var in service.CreateOfferInput
	require.NoError(t, json.Unmarshal([]byte(offerBody), &in))
	offer, err := f.svc.CreateOffer(context.Background(), f.business, in)
	require.NoError(t, err)
	return offer
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestPingHandler(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	w := httptest.NewRecorder()

	f.handler.PingHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestRegistrationHandler(t *testing.T) {
	f := newFixture(t)
	reqBody := `{"username": "Max Mustermann", "email": "max@example.com", "password": "pw", "repeated_password": "pw", "type": "customer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/registration/", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	f.handler.RegistrationHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var body map[string]any
	decodeBody(t, res, &body)
	require.Equal(t, "Max Mustermann", body["username"])
	require.Equal(t, "max@example.com", body["email"])
	require.NotEmpty(t, body["token"])
	require.NotZero(t, body["user_id"])
}

func TestRegistrationHandlerEmptyBody(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/registration/", strings.NewReader(""))
	w := httptest.NewRecorder()

	f.handler.RegistrationHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Request body is empty")
}

func TestLoginHandler(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(`{"username": "kunde", "password": "pw"}`))
	w := httptest.NewRecorder()

	f.handler.LoginHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body map[string]any
	decodeBody(t, res, &body)
	require.Equal(t, f.tokens[f.customer.UserID], body["token"])

	req = httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(`{"username": "kunde", "password": "falsch"}`))
	w = httptest.NewRecorder()
	f.handler.LoginHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthenticateMiddleware(t *testing.T) {
	f := newFixture(t)
	mw := f.handler.Authenticate(http.HandlerFunc(f.handler.GetOrdersHandler))

	// без заголовка запрос доходит до обработчика анонимным
	req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Authentication credentials were not provided.")

	req = httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req.Header.Set("Authorization", "Token "+f.tokens[f.business.UserID])
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req.Header.Set("Authorization", "Token wrong")
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid token.")

	req = httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOfferHandler(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/offers/", strings.NewReader(offerBody))
	req = handlers.WithPrincipal(req, f.business)
	w := httptest.NewRecorder()
	f.handler.CreateOfferHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var body struct {
		ID      int64 `json:"id"`
		Title   string
		Details []struct {
			ID        int64   `json:"id"`
			Price     float64 `json:"price"`
			OfferType string  `json:"offer_type"`
			Features  []string
		} `json:"details"`
	}
	decodeBody(t, res, &body)
	require.NotZero(t, body.ID)
	require.Len(t, body.Details, 3)
	require.Equal(t, "basic", body.Details[0].OfferType)
	require.Equal(t, 100.0, body.Details[0].Price)
	require.Len(t, body.Details[2].Features, 4)
}

func TestCreateOfferHandlerPermissions(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/offers/", strings.NewReader(offerBody))
	w := httptest.NewRecorder()
	f.handler.CreateOfferHandler(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/offers/", strings.NewReader(offerBody))
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.CreateOfferHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateOfferHandlerTooFewDetails(t *testing.T) {
	f := newFixture(t)
	reqBody := `{"title": "T", "description": "D", "details": [
        {"title": "Basic", "revisions": 1, "delivery_time_in_days": 1, "price": 1, "features": ["a"], "offer_type": "basic"}
    ]}`
	req := httptest.NewRequest(http.MethodPost, "/api/offers/", strings.NewReader(reqBody))
	req = handlers.WithPrincipal(req, f.business)
	w := httptest.NewRecorder()
	f.handler.CreateOfferHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "at least 3 details")
}

func TestGetOffersHandlerPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.createOffer(t)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/offers/?page_size=2", nil)
	w := httptest.NewRecorder()
	f.handler.GetOffersHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []struct {
			ID              int64   `json:"id"`
			MinPrice        float64 `json:"min_price"`
			MinDeliveryTime int     `json:"min_delivery_time"`
			UserDetails     struct {
				Username string `json:"username"`
			} `json:"user_details"`
			Details []struct {
				ID  int64  `json:"id"`
				URL string `json:"url"`
			} `json:"details"`
		} `json:"results"`
	}
	decodeBody(t, res, &body)
	require.Equal(t, 3, body.Count)
	require.Len(t, body.Results, 2)
	require.NotNil(t, body.Next)
	require.Contains(t, *body.Next, "page=2")
	require.Contains(t, *body.Next, "page_size=2")
	require.Nil(t, body.Previous)

	item := body.Results[0]
	require.Equal(t, 100.0, item.MinPrice)
	require.Equal(t, 5, item.MinDeliveryTime)
	require.Equal(t, "anbieter", item.UserDetails.Username)
	require.Len(t, item.Details, 3)
	require.Equal(t, fmt.Sprintf("http://example.com/api/offerdetails/%d/", item.Details[0].ID), item.Details[0].URL)

	req = httptest.NewRequest(http.MethodGet, "/api/offers/?page_size=2&page=2", nil)
	w = httptest.NewRecorder()
	f.handler.GetOffersHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"next":null`)

	req = httptest.NewRequest(http.MethodGet, "/api/offers/?page_size=2&page=3", nil)
	w = httptest.NewRecorder()
	f.handler.GetOffersHandler(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOffersHandlerBadFilter(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/offers/?max_delivery_time=soon", nil)
	w := httptest.NewRecorder()
	f.handler.GetOffersHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "max_delivery_time")
}

func TestGetOfferHandler(t *testing.T) {
	f := newFixture(t)
	offer := f.createOffer(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/offers/%d/", offer.ID), nil)
	req = testutils.WithChiURLParams(req, map[string]string{"offerId": fmt.Sprint(offer.ID)})
	w := httptest.NewRecorder()
	f.handler.GetOfferHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"min_price":100`)
	require.NotContains(t, w.Body.String(), "user_details")

	req = httptest.NewRequest(http.MethodGet, "/api/offers/999/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"offerId": "999"})
	w = httptest.NewRecorder()
	f.handler.GetOfferHandler(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/offers/abc/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"offerId": "abc"})
	w = httptest.NewRecorder()
	f.handler.GetOfferHandler(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditOfferHandler(t *testing.T) {
	f := newFixture(t)
	offer := f.createOffer(t)
	basic := offer.Details[0]

	reqBody := fmt.Sprintf(`{"title": "Updated", "details": [{"id": %d, "offer_type": "basic", "price": 120}]}`, basic.ID)
	req := testutils.NewJSONRequest(http.MethodPatch, "/api/offers/x/", reqBody, map[string]string{"offerId": fmt.Sprint(offer.ID)})
	req = handlers.WithPrincipal(req, f.business)
	w := httptest.NewRecorder()
	f.handler.EditOfferHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Title   string `json:"title"`
		Details []struct {
			ID    int64   `json:"id"`
			Price float64 `json:"price"`
			Title string  `json:"title"`
		} `json:"details"`
	}
	decodeBody(t, res, &body)
	require.Equal(t, "Updated", body.Title)
	require.Len(t, body.Details, 3)
	require.Equal(t, 120.0, body.Details[0].Price)
	require.Equal(t, "Basic Design", body.Details[0].Title)

	reqBody = fmt.Sprintf(`{"details": [{"id": %d, "offer_type": "premium"}]}`, basic.ID)
	req = testutils.NewJSONRequest(http.MethodPatch, "/api/offers/x/", reqBody, map[string]string{"offerId": fmt.Sprint(offer.ID)})
	req = handlers.WithPrincipal(req, f.business)
	w = httptest.NewRecorder()
	f.handler.EditOfferHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "details[0].offer_type")
}

func TestDeleteOfferHandler(t *testing.T) {
	f := newFixture(t)
	offer := f.createOffer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/offers/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"offerId": fmt.Sprint(offer.ID)})
	req = handlers.WithPrincipal(req, f.customer)
	w := httptest.NewRecorder()
	f.handler.DeleteOfferHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/offers/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"offerId": fmt.Sprint(offer.ID)})
	req = handlers.WithPrincipal(req, f.business)
	w = httptest.NewRecorder()
	f.handler.DeleteOfferHandler(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetOfferDetailHandler(t *testing.T) {
	f := newFixture(t)
	offer := f.createOffer(t)
	detailID := fmt.Sprint(offer.Details[1].ID)

	req := httptest.NewRequest(http.MethodGet, "/api/offerdetails/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"detailId": detailID})
	w := httptest.NewRecorder()
	f.handler.GetOfferDetailHandler(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/offerdetails/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"detailId": detailID})
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.GetOfferDetailHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"offer_type":"standard"`)
	require.Contains(t, w.Body.String(), `"price":200`)
}

func TestOrderHandlers(t *testing.T) {
	f := newFixture(t)
	offer := f.createOffer(t)

	reqBody := fmt.Sprintf(`{"offer_detail_id": %d}`, offer.Details[0].ID)
	req := httptest.NewRequest(http.MethodPost, "/api/orders/", strings.NewReader(reqBody))
	req = handlers.WithPrincipal(req, f.customer)
	w := httptest.NewRecorder()
	f.handler.CreateOrderHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var order map[string]any
	decodeBody(t, res, &order)
	require.Equal(t, "in_progress", order["status"])
	require.Equal(t, float64(f.business.UserID), order["business_user"])
	require.Equal(t, float64(f.customer.UserID), order["customer_user"])
	require.Equal(t, "basic", order["offer_type"])
	require.Equal(t, "Basic Design", order["title"])
	orderID := fmt.Sprint(int64(order["id"].(float64)))

	req = testutils.NewJSONRequest(http.MethodPatch, "/api/orders/x/", `{"status": "completed"}`, map[string]string{"orderId": orderID})
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.UpdateOrderStatusHandler(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = testutils.NewJSONRequest(http.MethodPatch, "/api/orders/x/", `{"status": "completed"}`, map[string]string{"orderId": orderID})
	req = handlers.WithPrincipal(req, f.business)
	w = httptest.NewRecorder()
	f.handler.UpdateOrderStatusHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"completed"`)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.GetOrdersHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/completed-order-count/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"businessUserId": fmt.Sprint(f.business.UserID)})
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.CompletedOrderCountHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"completed_order_count": 1}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/order-count/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"businessUserId": fmt.Sprint(f.business.UserID)})
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.OrderCountHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"order_count": 0}`, w.Body.String())
}

func TestCreateOrderHandlerMissingDetailID(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/orders/", strings.NewReader(`{}`))
	req = handlers.WithPrincipal(req, f.customer)
	w := httptest.NewRecorder()
	f.handler.CreateOrderHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "offer_detail_id")
}

func TestReviewHandlers(t *testing.T) {
	f := newFixture(t)
	reqBody := fmt.Sprintf(`{"business_user": %d, "rating": 4, "description": "Top"}`, f.business.UserID)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews/", strings.NewReader(reqBody))
	req = handlers.WithPrincipal(req, f.customer)
	w := httptest.NewRecorder()
	f.handler.CreateReviewHandler(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), fmt.Sprintf(`"reviewer":%d`, f.customer.UserID))

	req = httptest.NewRequest(http.MethodPost, "/api/reviews/", strings.NewReader(reqBody))
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.CreateReviewHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "only review a business user once")

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/reviews/?business_user_id=%d&ordering=rating", f.business.UserID), nil)
	req = handlers.WithPrincipal(req, f.business)
	w = httptest.NewRecorder()
	f.handler.GetReviewsHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var reviews []models.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	require.Len(t, reviews, 1)
	require.Equal(t, 4, reviews[0].Rating)
}

func TestBaseInfoHandler(t *testing.T) {
	f := newFixture(t)
	f.createOffer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/base-info/", nil)
	w := httptest.NewRecorder()
	f.handler.BaseInfoHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"review_count": 0, "average_rating": 0, "business_profile_count": 1, "offer_count": 1}`, w.Body.String())
}

func TestBaseInfoHandlerHidesInternalErrors(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("pq: connection refused")

	req := httptest.NewRequest(http.MethodGet, "/api/base-info/", nil)
	w := httptest.NewRecorder()
	f.handler.BaseInfoHandler(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection refused")
}

func TestProfileHandlers(t *testing.T) {
	f := newFixture(t)
	userID := fmt.Sprint(f.business.UserID)

	req := testutils.NewJSONRequest(http.MethodPatch, "/api/profile/x/", `{"location": "Berlin", "type": "customer"}`, map[string]string{"userId": userID})
	req = handlers.WithPrincipal(req, f.business)
	w := httptest.NewRecorder()
	f.handler.UpdateProfileHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	require.Equal(t, "Berlin", profile["location"])
	require.Equal(t, "business", profile["type"], "type is read-only")
	require.Equal(t, "anbieter", profile["username"])
	require.Contains(t, profile, "created_at")

	req = httptest.NewRequest(http.MethodGet, "/api/profiles/business/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"profileType": "business"})
	req = handlers.WithPrincipal(req, f.customer)
	w = httptest.NewRecorder()
	f.handler.ListProfilesHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var profiles []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profiles))
	require.Len(t, profiles, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/profile/x/", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"userId": userID})
	w = httptest.NewRecorder()
	f.handler.GetProfileHandler(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
