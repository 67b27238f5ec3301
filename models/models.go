package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func init() {
	// цены отдаём числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true
}

// Тип профиля пользователя
type Role string

const (
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleBusiness || r == RoleCustomer
}

// Пакет (тариф) предложения
type OfferType string

const (
	OfferTypeBasic    OfferType = "basic"
	OfferTypeStandard OfferType = "standard"
	OfferTypePremium  OfferType = "premium"
)

// RequiredOfferTypes - ровно эти тарифы должны быть у каждого предложения.
var RequiredOfferTypes = []OfferType{OfferTypeBasic, OfferTypeStandard, OfferTypePremium}

func (t OfferType) Valid() bool {
	switch t {
	case OfferTypeBasic, OfferTypeStandard, OfferTypePremium:
		return true
	}
	return false
}

// Статус заказа
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Плейсхолдер для незаполненных полей профиля
const ProfilePlaceholder = "-"

// Сущность Пользователя
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	IsActive     bool      `db:"is_active" json:"-"`
	IsStaff      bool      `db:"is_staff" json:"-"`
	DateJoined   time.Time `db:"date_joined" json:"date_joined"`
}

// Сущность Профиля, 1:1 с пользователем
type Profile struct {
	ID           int64   `db:"id" json:"-"`
	UserID       int64   `db:"user_id" json:"user"`
	File         *string `db:"file" json:"file"`
	Location     string  `db:"location" json:"location"`
	Tel          string  `db:"tel" json:"tel"`
	Description  string  `db:"description" json:"description"`
	WorkingHours string  `db:"working_hours" json:"working_hours"`
	Type         Role    `db:"type" json:"type"`
}

// ProfileWithUser - профиль вместе с полями аккаунта
type ProfileWithUser struct {
	Profile
	Username   string    `db:"username"`
	Email      string    `db:"email"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	DateJoined time.Time `db:"date_joined"`
}

// Токен авторизации
type Token struct {
	Key       string    `db:"key"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Сущность Предложения
type Offer struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Title       string    `db:"title"`
	Image       *string   `db:"image"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Details []OfferDetail `db:"-"`
}

// OfferSummary - строка списка предложений с данными владельца
type OfferSummary struct {
	Offer
	OwnerUsername  string `db:"owner_username"`
	OwnerFirstName string `db:"owner_first_name"`
	OwnerLastName  string `db:"owner_last_name"`
}

// Сущность Тарифа предложения
type OfferDetail struct {
	ID                 int64           `db:"id"`
	OfferID            int64           `db:"offer_id"`
	Title              string          `db:"title"`
	Revisions          int             `db:"revisions"`
	DeliveryTimeInDays int             `db:"delivery_time_in_days"`
	Price              decimal.Decimal `db:"price"`
	Features           pq.StringArray  `db:"features"`
	OfferType          OfferType       `db:"offer_type"`
}

// MinPrice возвращает минимальную цену среди тарифов. ok=false если тарифов нет.
func (o *Offer) MinPrice() (decimal.Decimal, bool) {
	if len(o.Details) == 0 {
		return decimal.Zero, false
	}
	lowest := o.Details[0].Price
	for _, d := range o.Details[1:] {
		if d.Price.LessThan(lowest) {
			lowest = d.Price
		}
	}
	return lowest, true
}

// MinDeliveryTime возвращает минимальный срок выполнения среди тарифов.
func (o *Offer) MinDeliveryTime() (int, bool) {
	if len(o.Details) == 0 {
		return 0, false
	}
	lowest := o.Details[0].DeliveryTimeInDays
	for _, d := range o.Details[1:] {
		if d.DeliveryTimeInDays < lowest {
			lowest = d.DeliveryTimeInDays
		}
	}
	return lowest, true
}

// Сущность Заказа
type Order struct {
	ID             int64       `db:"id"`
	CustomerUserID int64       `db:"customer_user_id"`
	BusinessUserID int64       `db:"business_user_id"`
	OfferDetailID  int64       `db:"offer_detail_id"`
	Status         OrderStatus `db:"status"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// OrderWithDetail - заказ вместе с полями заказанного тарифа
type OrderWithDetail struct {
	Order
	Title              string          `db:"title"`
	Revisions          int             `db:"revisions"`
	DeliveryTimeInDays int             `db:"delivery_time_in_days"`
	Price              decimal.Decimal `db:"price"`
	Features           pq.StringArray  `db:"features"`
	OfferType          OfferType       `db:"offer_type"`
}

// Сущность Отзыва
type Review struct {
	ID             int64     `db:"id" json:"id"`
	BusinessUserID int64     `db:"business_user_id" json:"business_user"`
	ReviewerID     int64     `db:"reviewer_id" json:"reviewer"`
	Rating         int       `db:"rating" json:"rating"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Статистика платформы
type BaseInfo struct {
	ReviewCount          int     `db:"review_count" json:"review_count"`
	AverageRating        float64 `db:"average_rating" json:"average_rating"`
	BusinessProfileCount int     `db:"business_profile_count" json:"business_profile_count"`
	OfferCount           int     `db:"offer_count" json:"offer_count"`
}

// Account - пользователь вместе с типом профиля, используется для аутентификации
type Account struct {
	User
	Type Role `db:"type"`
}

// Фильтры списка предложений
type OfferFilter struct {
	CreatorID       *int64
	MinPrice        *decimal.Decimal
	MaxDeliveryTime *int
	Search          string
	Ordering        string
	Limit           int
	Offset          int
}

// Допустимые значения ordering для предложений
var OfferOrderings = map[string]bool{
	"updated_at": true, "-updated_at": true,
	"min_price": true, "-min_price": true,
}

// Фильтры списка отзывов
type ReviewFilter struct {
	BusinessUserID *int64
	ReviewerID     *int64
	Ordering       string
}

// Допустимые значения ordering для отзывов
var ReviewOrderings = map[string]bool{
	"updated_at": true, "-updated_at": true,
	"rating": true, "-rating": true,
}
