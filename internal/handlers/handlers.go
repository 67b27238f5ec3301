package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"marketplace/internal/auth"
	"marketplace/internal/errs"
	"marketplace/internal/service"
)

// Handler оборачивает сервис маркетплейса
type Handler struct {
	Service *service.Service
}

// NewHandler создает новый Handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type principalKey struct{}

// Authenticate кладёт в контекст пользователя из заголовка Authorization.
// Без заголовка запрос анонимный; с неверным токеном сразу 401.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		key, ok := auth.ParseAuthorization(header)
		if !ok {
			writeError(w, r, errs.NewUnauthorizedError("Invalid token header.", false))
			return
		}
		p, err := h.Service.Authenticate(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, p)
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Int64("user_id", p.UserID)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal возвращает пользователя запроса либо auth.Anonymous
func principal(r *http.Request) auth.Principal {
	if p, ok := r.Context().Value(principalKey{}).(auth.Principal); ok {
		return p
	}
	return auth.Anonymous
}

// WithPrincipal нужен тестам, которые вызывают обработчики напрямую
func WithPrincipal(r *http.Request, p auth.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey{}, p))
}

// pathID парсит положительный id из параметра пути
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewNotFoundError("Not found.", true, nil)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError отдаёт *errs.HTTPError как есть, прочие ошибки - как 500 без подробностей
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
		httpErr = errs.NewInternalServerError()
	}
	writeJSON(w, httpErr.Status, httpErr)
}

// authenticated пишет 401 и возвращает false для анонимного запроса.
// Проверка идёт до разбора тела, чтобы аноним не получал ошибки валидации.
func authenticated(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p := principal(r)
	if err := auth.RequireAuthenticated(p); err != nil {
		writeError(w, r, err)
		return p, false
	}
	return p, true
}
