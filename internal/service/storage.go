package service

import (
	"context"

	"marketplace/models"
)

// Storage - всё, что сервису нужно от базы. Реализуется db.Storage,
// в тестах подменяется хранилищем в памяти.
type Storage interface {
	CreateAccount(ctx context.Context, user *models.User, profile *models.Profile, token *models.Token) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetOrCreateToken(ctx context.Context, token *models.Token) error
	GetAccountByToken(ctx context.Context, key string) (*models.Account, error)

	GetProfile(ctx context.Context, userID int64) (*models.ProfileWithUser, error)
	ListProfiles(ctx context.Context, role models.Role) ([]models.ProfileWithUser, error)
	UpdateProfile(ctx context.Context, profile *models.ProfileWithUser) error
	IsBusinessUser(ctx context.Context, userID int64) (bool, error)

	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, offerID int64) (*models.Offer, error)
	UpdateOffer(ctx context.Context, offer *models.Offer) error
	DeleteOffer(ctx context.Context, offerID int64) error
	ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.OfferSummary, int, error)
	GetOfferDetail(ctx context.Context, detailID int64) (*models.OfferDetail, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID int64) (*models.OrderWithDetail, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithDetail, error)
	UpdateOrderStatus(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, orderID int64) error
	CountOrders(ctx context.Context, businessUserID int64, status models.OrderStatus) (int, error)

	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, reviewID int64) (*models.Review, error)
	ReviewExists(ctx context.Context, businessUserID, reviewerID int64) (bool, error)
	ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, reviewID int64) error

	GetBaseInfo(ctx context.Context) (*models.BaseInfo, error)
}
