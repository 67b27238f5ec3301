package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/models"
)

// Представления ответов API. Для каждой операции своя форма.

type profileView struct {
	User         int64       `json:"user"`
	Username     string      `json:"username"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	File         *string     `json:"file"`
	Location     string      `json:"location"`
	Tel          string      `json:"tel"`
	Description  string      `json:"description"`
	WorkingHours string      `json:"working_hours"`
	Type         models.Role `json:"type"`
	Email        string      `json:"email"`
	CreatedAt    time.Time   `json:"created_at"`
}

func newProfileView(p *models.ProfileWithUser) profileView {
	return profileView{
		User:         p.UserID,
		Username:     p.Username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		File:         p.File,
		Location:     p.Location,
		Tel:          p.Tel,
		Description:  p.Description,
		WorkingHours: p.WorkingHours,
		Type:         p.Type,
		Email:        p.Email,
		CreatedAt:    p.DateJoined,
	}
}

// offerDetailView - тариф целиком
type offerDetailView struct {
	ID                 int64            `json:"id"`
	Title              string           `json:"title"`
	Revisions          int              `json:"revisions"`
	DeliveryTimeInDays int              `json:"delivery_time_in_days"`
	Price              decimal.Decimal  `json:"price"`
	Features           []string         `json:"features"`
	OfferType          models.OfferType `json:"offer_type"`
}

func newOfferDetailView(d *models.OfferDetail) offerDetailView {
	features := []string(d.Features)
	if features == nil {
		features = []string{}
	}
	return offerDetailView{
		ID:                 d.ID,
		Title:              d.Title,
		Revisions:          d.Revisions,
		DeliveryTimeInDays: d.DeliveryTimeInDays,
		Price:              d.Price,
		Features:           features,
		OfferType:          d.OfferType,
	}
}

// offerDetailLink - ссылка на тариф в списке и карточке предложения
type offerDetailLink struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type userDetailsView struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// offerView - карточка GET /offers/{id}/
type offerView struct {
	ID              int64             `json:"id"`
	User            int64             `json:"user"`
	Title           string            `json:"title"`
	Image           *string           `json:"image"`
	Description     string            `json:"description"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Details         []offerDetailLink `json:"details"`
	MinPrice        *decimal.Decimal  `json:"min_price"`
	MinDeliveryTime *int              `json:"min_delivery_time"`
}

// offerListItem - элемент списка, дополнительно данные владельца
type offerListItem struct {
	offerView
	UserDetails userDetailsView `json:"user_details"`
}

// offerWriteView - ответ на создание и изменение: тарифы целиком
type offerWriteView struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Image       *string           `json:"image"`
	Description string            `json:"description"`
	Details     []offerDetailView `json:"details"`
}

func newOfferView(r *http.Request, o *models.Offer) offerView {
	v := offerView{
		ID:          o.ID,
		User:        o.UserID,
		Title:       o.Title,
		Image:       o.Image,
		Description: o.Description,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Details:     make([]offerDetailLink, 0, len(o.Details)),
	}
	for _, d := range o.Details {
		v.Details = append(v.Details, offerDetailLink{ID: d.ID, URL: offerDetailURL(r, d.ID)})
	}
	if price, ok := o.MinPrice(); ok {
		v.MinPrice = &price
	}
	if days, ok := o.MinDeliveryTime(); ok {
		v.MinDeliveryTime = &days
	}
	return v
}

func newOfferListItem(r *http.Request, o *models.OfferSummary) offerListItem {
	return offerListItem{
		offerView: newOfferView(r, &o.Offer),
		UserDetails: userDetailsView{
			FirstName: o.OwnerFirstName,
			LastName:  o.OwnerLastName,
			Username:  o.OwnerUsername,
		},
	}
}

func newOfferWriteView(o *models.Offer) offerWriteView {
	v := offerWriteView{
		ID:          o.ID,
		Title:       o.Title,
		Image:       o.Image,
		Description: o.Description,
		Details:     make([]offerDetailView, 0, len(o.Details)),
	}
	for i := range o.Details {
		v.Details = append(v.Details, newOfferDetailView(&o.Details[i]))
	}
	return v
}

// offerDetailURL - абсолютная ссылка на GET /api/offerdetails/{id}/
func offerDetailURL(r *http.Request, id int64) string {
	return fmt.Sprintf("%s/api/offerdetails/%d/", baseURL(r), id)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

// orderView - заказ вместе с данными заказанного тарифа
type orderView struct {
	ID                 int64              `json:"id"`
	CustomerUser       int64              `json:"customer_user"`
	BusinessUser       int64              `json:"business_user"`
	Title              string             `json:"title"`
	Revisions          int                `json:"revisions"`
	DeliveryTimeInDays int                `json:"delivery_time_in_days"`
	Price              decimal.Decimal    `json:"price"`
	Features           []string           `json:"features"`
	OfferType          models.OfferType   `json:"offer_type"`
	Status             models.OrderStatus `json:"status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func newOrderView(o *models.OrderWithDetail) orderView {
	features := []string(o.Features)
	if features == nil {
		features = []string{}
	}
	return orderView{
		ID:                 o.ID,
		CustomerUser:       o.CustomerUserID,
		BusinessUser:       o.BusinessUserID,
		Title:              o.Title,
		Revisions:          o.Revisions,
		DeliveryTimeInDays: o.DeliveryTimeInDays,
		Price:              o.Price,
		Features:           features,
		OfferType:          o.OfferType,
		Status:             o.Status,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// page - конверт постраничного списка
type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
