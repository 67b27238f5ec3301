package testutils

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"marketplace/models"
)

// MemStore - хранилище в памяти с поведением как у db.Storage:
// sql.ErrNoRows для отсутствующих строк и *pq.Error для нарушений уникальности.
type MemStore struct {
	mu sync.Mutex

	seq      int64
	now      time.Time
	users    map[int64]*models.User
	profiles map[int64]*models.Profile
	tokens   map[string]*models.Token
	offers   map[int64]*models.Offer
	details  map[int64]*models.OfferDetail
	orders   map[int64]*models.Order
	reviews  map[int64]*models.Review

	// Err, если задана, возвращается из любого метода
	Err error
	// SkipReviewPrecheck имитирует гонку: ReviewExists всегда false
	SkipReviewPrecheck bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		now:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		users:    map[int64]*models.User{},
		profiles: map[int64]*models.Profile{},
		tokens:   map[string]*models.Token{},
		offers:   map[int64]*models.Offer{},
		details:  map[int64]*models.OfferDetail{},
		orders:   map[int64]*models.Order{},
		reviews:  map[int64]*models.Review{},
	}
}

func (m *MemStore) nextID() int64 {
	m.seq++
	return m.seq
}

// tick - монотонное время, чтобы сортировка по updated_at была детерминированной
func (m *MemStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func uniqueViolation(table, constraint string) error {
	return &pq.Error{Code: "23505", Table: table, Constraint: constraint,
		Message: "duplicate key value violates unique constraint \"" + constraint + "\""}
}

// SetStaff делает пользователя администратором
func (m *MemStore) SetStaff(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.IsStaff = true
	}
}

// SetActive включает или блокирует пользователя
func (m *MemStore) SetActive(userID int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.IsActive = active
	}
}

func (m *MemStore) CreateAccount(ctx context.Context, u *models.User, p *models.Profile, t *models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return uniqueViolation("auth_user", "auth_user_username_key")
		}
		if existing.Email == u.Email {
			return uniqueViolation("auth_user", "auth_user_email_key")
		}
	}
	u.ID = m.nextID()
	u.DateJoined = m.tick()
	user := *u
	m.users[u.ID] = &user

	p.ID = m.nextID()
	p.UserID = u.ID
	profile := *p
	m.profiles[u.ID] = &profile

	t.UserID = u.ID
	t.CreatedAt = m.now
	token := *t
	m.tokens[t.Key] = &token
	return nil
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Username == username {
			user := *u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStore) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := m.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (m *MemStore) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) GetOrCreateToken(ctx context.Context, t *models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.tokens {
		if existing.UserID == t.UserID {
			*t = *existing
			return nil
		}
	}
	t.CreatedAt = m.tick()
	token := *t
	m.tokens[t.Key] = &token
	return nil
}

func (m *MemStore) GetAccountByToken(ctx context.Context, key string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t, ok := m.tokens[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u := m.users[t.UserID]
	return &models.Account{User: *u, Type: m.profiles[u.ID].Type}, nil
}

func (m *MemStore) profileWithUser(userID int64) (*models.ProfileWithUser, bool) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, false
	}
	u := m.users[userID]
	return &models.ProfileWithUser{
		Profile:    *p,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined,
	}, true
}

func (m *MemStore) GetProfile(ctx context.Context, userID int64) (*models.ProfileWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.profileWithUser(userID)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *MemStore) ListProfiles(ctx context.Context, role models.Role) ([]models.ProfileWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.ProfileWithUser{}
	for id, p := range m.profiles {
		if p.Type == role {
			pw, _ := m.profileWithUser(id)
			out = append(out, *pw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MemStore) UpdateProfile(ctx context.Context, p *models.ProfileWithUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.users[p.UserID]
	if !ok {
		return sql.ErrNoRows
	}
	for _, other := range m.users {
		if other.ID != u.ID && other.Email == p.Email {
			return uniqueViolation("auth_user", "auth_user_email_key")
		}
	}
	u.FirstName, u.LastName, u.Email = p.FirstName, p.LastName, p.Email
	profile := p.Profile
	m.profiles[p.UserID] = &profile
	return nil
}

func (m *MemStore) IsBusinessUser(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	p, ok := m.profiles[userID]
	return ok && p.Type == models.RoleBusiness, nil
}

func (m *MemStore) CreateOffer(ctx context.Context, o *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	o.ID = m.nextID()
	o.CreatedAt = m.tick()
	o.UpdatedAt = o.CreatedAt
	for i := range o.Details {
		d := &o.Details[i]
		d.ID = m.nextID()
		d.OfferID = o.ID
		detail := *d
		m.details[d.ID] = &detail
	}
	offer := *o
	offer.Details = nil
	m.offers[o.ID] = &offer
	return nil
}

func (m *MemStore) offerWithDetails(id int64) (*models.Offer, bool) {
	o, ok := m.offers[id]
	if !ok {
		return nil, false
	}
	offer := *o
	offer.Details = nil
	for _, d := range m.details {
		if d.OfferID == id {
			offer.Details = append(offer.Details, *d)
		}
	}
	sort.Slice(offer.Details, func(i, j int) bool { return offer.Details[i].ID < offer.Details[j].ID })
	return &offer, true
}

func (m *MemStore) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.offerWithDetails(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

func (m *MemStore) UpdateOffer(ctx context.Context, o *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.offers[o.ID]
	if !ok {
		return sql.ErrNoRows
	}
	for _, d := range o.Details {
		existing, ok := m.details[d.ID]
		if !ok || existing.OfferID != o.ID {
			return sql.ErrNoRows
		}
	}
	o.UpdatedAt = m.tick()
	stored.Title, stored.Description, stored.Image, stored.UpdatedAt = o.Title, o.Description, o.Image, o.UpdatedAt
	for _, d := range o.Details {
		existing := m.details[d.ID]
		existing.Title = d.Title
		existing.Revisions = d.Revisions
		existing.DeliveryTimeInDays = d.DeliveryTimeInDays
		existing.Price = d.Price
		existing.Features = d.Features
	}
	return nil
}

func (m *MemStore) DeleteOffer(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.offers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.offers, id)
	for detailID, d := range m.details {
		if d.OfferID != id {
			continue
		}
		delete(m.details, detailID)
		for orderID, o := range m.orders {
			if o.OfferDetailID == detailID {
				delete(m.orders, orderID)
			}
		}
	}
	return nil
}

func (m *MemStore) ListOffers(ctx context.Context, f models.OfferFilter) ([]models.OfferSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var matched []models.OfferSummary
	for id := range m.offers {
		o, _ := m.offerWithDetails(id)
		if f.CreatorID != nil && o.UserID != *f.CreatorID {
			continue
		}
		if f.MinPrice != nil && !anyDetail(o, func(d models.OfferDetail) bool { return d.Price.GreaterThanOrEqual(*f.MinPrice) }) {
			continue
		}
		if f.MaxDeliveryTime != nil && !anyDetail(o, func(d models.OfferDetail) bool { return d.DeliveryTimeInDays <= *f.MaxDeliveryTime }) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(o.Title), search) &&
			!strings.Contains(strings.ToLower(o.Description), search) {
			continue
		}
		u := m.users[o.UserID]
		matched = append(matched, models.OfferSummary{
			Offer:          *o,
			OwnerUsername:  u.Username,
			OwnerFirstName: u.FirstName,
			OwnerLastName:  u.LastName,
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := &matched[i].Offer, &matched[j].Offer
		switch f.Ordering {
		case "updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			return a.ID < b.ID
		case "-updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.ID > b.ID
		case "-min_price":
			pa, _ := a.MinPrice()
			pb, _ := b.MinPrice()
			if !pa.Equal(pb) {
				return pa.GreaterThan(pb)
			}
			return a.ID > b.ID
		default:
			pa, _ := a.MinPrice()
			pb, _ := b.MinPrice()
			if !pa.Equal(pb) {
				return pa.LessThan(pb)
			}
			return a.ID < b.ID
		}
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func anyDetail(o *models.Offer, pred func(models.OfferDetail) bool) bool {
	for _, d := range o.Details {
		if pred(d) {
			return true
		}
	}
	return false
}

func (m *MemStore) GetOfferDetail(ctx context.Context, id int64) (*models.OfferDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	d, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := *d
	return &detail, nil
}

func (m *MemStore) CreateOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.details[o.OfferDetailID]; !ok {
		return &pq.Error{Code: "23503", Table: "orders", Constraint: "orders_offer_detail_id_fkey"}
	}
	o.ID = m.nextID()
	o.CreatedAt = m.tick()
	o.UpdatedAt = o.CreatedAt
	order := *o
	m.orders[o.ID] = &order
	return nil
}

func (m *MemStore) orderWithDetail(o *models.Order) models.OrderWithDetail {
	d := m.details[o.OfferDetailID]
	return models.OrderWithDetail{
		Order:              *o,
		Title:              d.Title,
		Revisions:          d.Revisions,
		DeliveryTimeInDays: d.DeliveryTimeInDays,
		Price:              d.Price,
		Features:           d.Features,
		OfferType:          d.OfferType,
	}
}

func (m *MemStore) GetOrder(ctx context.Context, id int64) (*models.OrderWithDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	order := m.orderWithDetail(o)
	return &order, nil
}

func (m *MemStore) ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.OrderWithDetail{}
	for _, o := range m.orders {
		if o.CustomerUserID == userID || o.BusinessUserID == userID {
			out = append(out, m.orderWithDetail(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemStore) UpdateOrderStatus(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.orders[o.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = o.Status
	stored.UpdatedAt = m.tick()
	o.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.orders[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.orders, id)
	return nil
}

func (m *MemStore) CountOrders(ctx context.Context, businessUserID int64, status models.OrderStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, o := range m.orders {
		if o.BusinessUserID == businessUserID && o.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MemStore) CreateReview(ctx context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.reviews {
		if existing.BusinessUserID == r.BusinessUserID && existing.ReviewerID == r.ReviewerID {
			return uniqueViolation("review", "review_business_user_reviewer_key")
		}
	}
	r.ID = m.nextID()
	r.CreatedAt = m.tick()
	r.UpdatedAt = r.CreatedAt
	review := *r
	m.reviews[r.ID] = &review
	return nil
}

func (m *MemStore) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.reviews[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	review := *r
	return &review, nil
}

func (m *MemStore) ReviewExists(ctx context.Context, businessUserID, reviewerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.SkipReviewPrecheck {
		return false, nil
	}
	for _, r := range m.reviews {
		if r.BusinessUserID == businessUserID && r.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) ListReviews(ctx context.Context, f models.ReviewFilter) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.Review{}
	for _, r := range m.reviews {
		if f.BusinessUserID != nil && r.BusinessUserID != *f.BusinessUserID {
			continue
		}
		if f.ReviewerID != nil && r.ReviewerID != *f.ReviewerID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Ordering {
		case "updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			return a.ID < b.ID
		case "rating":
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
			return a.ID < b.ID
		case "-rating":
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.ID > b.ID
		default:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.ID > b.ID
		}
	})
	return out, nil
}

func (m *MemStore) UpdateReview(ctx context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.reviews[r.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Rating, stored.Description = r.Rating, r.Description
	stored.UpdatedAt = m.tick()
	r.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) DeleteReview(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.reviews[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.reviews, id)
	return nil
}

func (m *MemStore) GetBaseInfo(ctx context.Context) (*models.BaseInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	info := &models.BaseInfo{ReviewCount: len(m.reviews), OfferCount: len(m.offers)}
	sum := 0
	for _, r := range m.reviews {
		sum += r.Rating
	}
	if len(m.reviews) > 0 {
		info.AverageRating = float64(sum) / float64(len(m.reviews))
	}
	for _, p := range m.profiles {
		if p.Type == models.RoleBusiness {
			info.BusinessProfileCount++
		}
	}
	return info, nil
}
