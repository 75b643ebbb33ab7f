package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/cache"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/internal/storetest"
	"github.com/venkat-sld/shoplive/pkg/jwtutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingImages struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (r *recordingImages) Delete(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, filename)
	return r.err
}

// orderBeforeSet runs place once, after the catalog has read the database and
// before the snapshot reaches the cache
type orderBeforeSet struct {
	cache.ProductCache
	place func()
}

func (c *orderBeforeSet) Set(ctx context.Context, product *model.Product, version int64) error {
	if c.place != nil {
		place := c.place
		c.place = nil
		place()
	}
	return c.ProductCache.Set(ctx, product, version)
}

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	tokens  *jwtutil.JWTUtil
	images  *recordingImages
	redis   *miniredis.Miniredis
	auth    *AuthService
	catalog *CatalogService
	intake  *OrderIntake
	ledger  *OrderLedger
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = storetest.NewDB(s.T())
	s.tokens = jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	s.images = &recordingImages{}

	s.redis = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { client.Close() })
	productCache := cache.NewRedisProductCache(client, time.Minute)

	merchants := store.NewMerchantStore(s.db)
	products := store.NewProductStore(s.db)
	orders := store.NewOrderStore(s.db)
	authz := NewAuthorizer(products, orders)

	s.auth = NewAuthService(merchants, s.tokens)
	s.auth.hashCost = bcrypt.MinCost
	s.catalog = NewCatalogService(products, authz, productCache, s.images)
	s.intake = NewOrderIntake(orders, productCache)
	s.ledger = NewOrderLedger(orders, authz)
}

func (s *ServiceTestSuite) register(email string) *model.Merchant {
	m, _, err := s.auth.Register(s.ctx, RegisterInput{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     email,
		Password:  "secret",
	})
	s.Require().NoError(err)
	return m
}

func (s *ServiceTestSuite) product(owner uint, name string, price string, stock int) *model.Product {
	p := decimal.RequireFromString(price)
	product, err := s.catalog.Create(s.ctx, owner, model.ProductFields{Name: name, Price: &p, StockQuantity: stock})
	s.Require().NoError(err)
	return product
}

func (s *ServiceTestSuite) order(productID uint, quantity int) (*model.Order, error) {
	return s.intake.PlaceOrder(s.ctx, OrderRequest{
		ProductID:       productID,
		CustomerName:    "Ravi",
		CustomerPhone:   "9999999999",
		DeliveryAddress: "12 Market Road",
		Quantity:        quantity,
	})
}

func (s *ServiceTestSuite) stock(productID uint) int {
	var p model.Product
	s.Require().NoError(s.db.Take(&p, productID).Error)
	return p.StockQuantity
}

func (s *ServiceTestSuite) kind(err error) apperror.Kind {
	s.Require().Error(err)
	return apperror.KindOf(err)
}

func (s *ServiceTestSuite) TestRegisterAndLogin() {
	merchant, token, err := s.auth.Register(s.ctx, RegisterInput{
		FirstName:   "Asha",
		LastName:    "Rao",
		Email:       "asha@example.com",
		Password:    "secret",
		CompanyName: "Asha Crafts",
	})
	s.Require().NoError(err)
	s.NotEqual("secret", merchant.Password)

	claims, err := s.tokens.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal(merchant.ID, claims.ID)
	s.Equal("asha@example.com", claims.Email)

	_, _, err = s.auth.Register(s.ctx, RegisterInput{FirstName: "B", LastName: "C", Email: "asha@example.com", Password: "x"})
	s.Equal(apperror.KindConflict, s.kind(err))
	s.Equal("Email already exists", apperror.MessageOf(err))

	_, _, err = s.auth.Register(s.ctx, RegisterInput{FirstName: "B", Email: "b@example.com", Password: "x"})
	s.Equal("All fields are required", apperror.MessageOf(err))

	loggedIn, token, err := s.auth.Login(s.ctx, "asha@example.com", "secret")
	s.Require().NoError(err)
	s.Equal(merchant.ID, loggedIn.ID)
	s.NotEmpty(token)

	_, _, err = s.auth.Login(s.ctx, "asha@example.com", "wrong")
	s.Equal(apperror.KindValidation, s.kind(err))
	s.Equal("Invalid password", apperror.MessageOf(err))
	s.Equal(400, apperror.KindOf(err).HTTPStatus())

	_, _, err = s.auth.Login(s.ctx, "nobody@example.com", "secret")
	s.Equal("User not found", apperror.MessageOf(err))

	_, _, err = s.auth.Login(s.ctx, "", "secret")
	s.Equal("Email and password are required", apperror.MessageOf(err))

	profile, err := s.auth.Profile(s.ctx, merchant.ID)
	s.Require().NoError(err)
	s.Equal("Asha Crafts", profile.CompanyName)

	_, err = s.auth.Profile(s.ctx, 999)
	s.Equal(apperror.KindNotFound, s.kind(err))
}

func (s *ServiceTestSuite) TestCreateThenGetRoundTrip() {
	m := s.register("a@example.com")
	price := decimal.RequireFromString("249.99")
	size, color, image := "L", "Indigo", "/images/shirt.png"

	created, err := s.catalog.Create(s.ctx, m.ID, model.ProductFields{
		Name:          "  Shirt ",
		Description:   "Hand block printed",
		Price:         &price,
		Size:          &size,
		Color:         &color,
		Image:         &image,
		StockQuantity: 7,
	})
	s.Require().NoError(err)
	s.Equal(m.ID, created.UserID)

	// first read fills the cache, second is served from it
	for i := 0; i < 2; i++ {
		got, err := s.catalog.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("Shirt", got.Name)
		s.Equal("Hand block printed", got.Description)
		s.True(price.Equal(got.Price), got.Price.String())
		s.Equal(size, *got.Size)
		s.Equal(color, *got.Color)
		s.Equal(image, *got.Image)
		s.Equal(7, got.StockQuantity)
	}

	_, err = s.catalog.Get(s.ctx, 4242)
	s.Equal(apperror.KindNotFound, s.kind(err))
	s.Equal("Product not found", apperror.MessageOf(err))
}

func (s *ServiceTestSuite) TestCreateValidation() {
	m := s.register("a@example.com")
	negative := decimal.NewFromInt(-1)
	zero := decimal.Zero
	huge := decimal.NewFromInt(100000000)

	_, err := s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Mug"})
	s.Equal("Name and price are required", apperror.MessageOf(err))

	_, err = s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: " ", Price: &zero})
	s.Equal("Name and price are required", apperror.MessageOf(err))

	_, err = s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Mug", Price: &negative})
	s.Equal("Price must be non-negative", apperror.MessageOf(err))

	_, err = s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Mug", Price: &huge})
	s.Equal(apperror.KindValidation, s.kind(err))

	_, err = s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Mug", Price: &zero, StockQuantity: -2})
	s.Equal(apperror.KindValidation, s.kind(err))

	free, err := s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Sticker", Price: &zero})
	s.Require().NoError(err)
	s.Equal(0, free.StockQuantity)
}

func (s *ServiceTestSuite) TestOwnershipIsolation() {
	a := s.register("a@example.com")
	b := s.register("b@example.com")
	mine := s.product(a.ID, "Mug", "100", 5)
	s.product(b.ID, "Cap", "50", 5)

	price := decimal.NewFromInt(1)
	_, err := s.catalog.Update(s.ctx, b.ID, mine.ID, model.ProductFields{Name: "Hijack", Price: &price})
	s.Equal(apperror.KindNotFoundOrUnauthorized, s.kind(err))
	s.Equal("Product not found or unauthorized", apperror.MessageOf(err))

	err = s.catalog.Delete(s.ctx, b.ID, mine.ID)
	s.Equal(apperror.KindNotFoundOrUnauthorized, s.kind(err))

	listB, err := s.catalog.List(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Require().Len(listB, 1)
	s.Equal("Cap", listB[0].Name)

	order, err := s.order(mine.ID, 1)
	s.Require().NoError(err)

	_, err = s.ledger.UpdateStatus(s.ctx, b.ID, order.ID, "completed")
	s.Equal(apperror.KindNotFoundOrUnauthorized, s.kind(err))
	s.Equal("Order not found or unauthorized", apperror.MessageOf(err))

	_, err = s.ledger.Get(s.ctx, b.ID, order.ID)
	s.Equal(apperror.KindNotFoundOrUnauthorized, s.kind(err))

	ordersB, err := s.ledger.List(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Empty(ordersB)

	got, err := s.catalog.Get(s.ctx, mine.ID)
	s.Require().NoError(err)
	s.Equal("Mug", got.Name)
}

func (s *ServiceTestSuite) TestMugScenario() {
	m := s.register("a@example.com")
	mug := s.product(m.ID, "Mug", "100", 2)

	// warm the cache so the order has something to invalidate
	_, err := s.catalog.Get(s.ctx, mug.ID)
	s.Require().NoError(err)

	order, err := s.order(mug.ID, 1)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(100).Equal(order.Amount))
	s.Equal(model.OrderStatusPending, order.OrderStatus)
	s.Equal(model.PaymentStatusSimulated, order.PaymentStatus)
	s.Equal(1, s.stock(mug.ID))

	got, err := s.catalog.Get(s.ctx, mug.ID)
	s.Require().NoError(err)
	s.Equal(1, got.StockQuantity)

	_, err = s.order(mug.ID, 2)
	s.ErrorIs(err, apperror.ErrInsufficientStock)
	s.Equal(400, apperror.KindOf(err).HTTPStatus())
	s.Equal(1, s.stock(mug.ID))
}

func (s *ServiceTestSuite) TestOrderDuringLoadDoesNotCacheOldStock() {
	m := s.register("a@example.com")
	mug := s.product(m.ID, "Mug", "100", 3)

	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { client.Close() })
	racing := &orderBeforeSet{ProductCache: cache.NewRedisProductCache(client, time.Minute)}
	racing.place = func() {
		_, err := s.order(mug.ID, 1)
		s.Require().NoError(err)
	}

	products := store.NewProductStore(s.db)
	catalog := NewCatalogService(products, NewAuthorizer(products, store.NewOrderStore(s.db)), racing, s.images)

	got, err := catalog.Get(s.ctx, mug.ID)
	s.Require().NoError(err)
	s.Equal(3, got.StockQuantity)
	s.False(s.redis.Exists(fmt.Sprintf("shoplive:product:%d", mug.ID)))

	got, err = catalog.Get(s.ctx, mug.ID)
	s.Require().NoError(err)
	s.Equal(2, got.StockQuantity)
}

func (s *ServiceTestSuite) TestAmountIsRecomputed() {
	m := s.register("a@example.com")
	p := s.product(m.ID, "Scarf", "12.50", 10)
	wrong := decimal.NewFromInt(1)

	order, err := s.intake.PlaceOrder(s.ctx, OrderRequest{
		ProductID:       p.ID,
		CustomerName:    "Ravi",
		CustomerPhone:   "9999999999",
		DeliveryAddress: "12 Market Road",
		Quantity:        3,
		Amount:          &wrong,
	})
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("37.50").Equal(order.Amount), order.Amount.String())
	s.Equal(7, s.stock(p.ID))
}

func (s *ServiceTestSuite) TestPlaceOrderValidation() {
	m := s.register("a@example.com")
	p := s.product(m.ID, "Mug", "100", 5)

	order, err := s.order(p.ID, 0)
	s.Require().NoError(err)
	s.Equal(1, order.Quantity)

	_, err = s.order(p.ID, -1)
	s.Equal("Quantity must be a positive integer", apperror.MessageOf(err))

	_, err = s.intake.PlaceOrder(s.ctx, OrderRequest{ProductID: p.ID, CustomerName: "Ravi", CustomerPhone: "1"})
	s.Equal("All fields are required", apperror.MessageOf(err))

	_, err = s.intake.PlaceOrder(s.ctx, OrderRequest{
		ProductID:       p.ID,
		CustomerName:    "Ravi",
		CustomerPhone:   "123456789012345678901",
		DeliveryAddress: "Road",
	})
	s.Equal(apperror.KindValidation, s.kind(err))

	_, err = s.order(4242, 1)
	s.Equal(apperror.KindNotFound, s.kind(err))
	s.Equal("Product not found", apperror.MessageOf(err))

	s.Equal(4, s.stock(p.ID))
}

func (s *ServiceTestSuite) TestOrderAmountOverflowIsRejected() {
	m := s.register("a@example.com")
	p := s.product(m.ID, "Necklace", "99999999", 5)

	_, err := s.order(p.ID, 2)
	s.Equal(apperror.KindValidation, s.kind(err))
	s.Equal("Order amount is too large", apperror.MessageOf(err))
	s.Equal(5, s.stock(p.ID))

	var count int64
	s.Require().NoError(s.db.Model(&model.Order{}).Count(&count).Error)
	s.Zero(count)

	order, err := s.order(p.ID, 1)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(99999999).Equal(order.Amount))
	s.Equal(4, s.stock(p.ID))
}

func (s *ServiceTestSuite) TestConcurrentOrdersNeverOversell() {
	const n = 10
	m := s.register("a@example.com")
	p := s.product(m.ID, "Limited", "10", n-1)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		placed       int
		insufficient int
		other        []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.order(p.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, apperror.ErrInsufficientStock):
				insufficient++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	s.Empty(other)
	s.Equal(n-1, placed)
	s.Equal(1, insufficient)
	s.Equal(0, s.stock(p.ID))

	var count int64
	s.Require().NoError(s.db.Model(&model.Order{}).Where("product_id = ?", p.ID).Count(&count).Error)
	s.Equal(int64(n-1), count)
}

func (s *ServiceTestSuite) TestUpdateStatus() {
	m := s.register("a@example.com")
	p := s.product(m.ID, "Mug", "100", 5)
	order, err := s.order(p.ID, 2)
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		updated, err := s.ledger.UpdateStatus(s.ctx, m.ID, order.ID, "completed")
		s.Require().NoError(err)
		s.Equal(model.OrderStatusCompleted, updated.OrderStatus)
		s.True(decimal.NewFromInt(200).Equal(updated.Amount))
	}

	// no terminal states
	updated, err := s.ledger.UpdateStatus(s.ctx, m.ID, order.ID, "pending")
	s.Require().NoError(err)
	s.Equal(model.OrderStatusPending, updated.OrderStatus)

	_, err = s.ledger.UpdateStatus(s.ctx, m.ID, order.ID, "")
	s.Equal("Order status is required", apperror.MessageOf(err))

	_, err = s.ledger.UpdateStatus(s.ctx, m.ID, order.ID, "shipped")
	s.Equal("Invalid order status", apperror.MessageOf(err))

	_, err = s.ledger.UpdateStatus(s.ctx, m.ID, 999, "completed")
	s.Equal(apperror.KindNotFoundOrUnauthorized, s.kind(err))

	views, err := s.ledger.List(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("Mug", views[0].ProductName)
	s.Equal(model.OrderStatusPending, views[0].OrderStatus)
}

func (s *ServiceTestSuite) TestUpdateReplacesFields() {
	m := s.register("a@example.com")
	color := "Red"
	price := decimal.NewFromInt(10)
	p, err := s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Cap", Price: &price, Color: &color, StockQuantity: 3})
	s.Require().NoError(err)

	_, err = s.catalog.Get(s.ctx, p.ID)
	s.Require().NoError(err)

	newPrice := decimal.NewFromInt(15)
	updated, err := s.catalog.Update(s.ctx, m.ID, p.ID, model.ProductFields{Name: "Cap v2", Price: &newPrice})
	s.Require().NoError(err)
	s.Equal("Cap v2", updated.Name)
	s.Nil(updated.Color)
	s.Equal(0, updated.StockQuantity)

	got, err := s.catalog.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Cap v2", got.Name)
	s.True(newPrice.Equal(got.Price))

	_, err = s.catalog.Update(s.ctx, m.ID, p.ID, model.ProductFields{Name: "Cap"})
	s.Equal("Name and price are required", apperror.MessageOf(err))
}

func (s *ServiceTestSuite) TestDeleteRemovesOrdersAndImage() {
	m := s.register("a@example.com")
	price := decimal.NewFromInt(10)
	image := "/images/cap.png"
	p, err := s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Cap", Price: &price, Image: &image, StockQuantity: 3})
	s.Require().NoError(err)
	_, err = s.order(p.ID, 1)
	s.Require().NoError(err)

	s.images.err = errors.New("disk gone")
	s.Require().NoError(s.catalog.Delete(s.ctx, m.ID, p.ID))
	s.Equal([]string{"cap.png"}, s.images.deleted)

	_, err = s.catalog.Get(s.ctx, p.ID)
	s.Equal(apperror.KindNotFound, s.kind(err))

	views, err := s.ledger.List(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Empty(views)

	err = s.catalog.Delete(s.ctx, m.ID, p.ID)
	s.Equal(apperror.KindNotFoundOrUnauthorized, s.kind(err))
}

func (s *ServiceTestSuite) TestDeleteSkipsRemoteImages() {
	m := s.register("a@example.com")
	price := decimal.NewFromInt(10)
	image := "https://cdn.example.com/cap.png"
	p, err := s.catalog.Create(s.ctx, m.ID, model.ProductFields{Name: "Cap", Price: &price, Image: &image})
	s.Require().NoError(err)

	s.Require().NoError(s.catalog.Delete(s.ctx, m.ID, p.ID))
	s.Empty(s.images.deleted)
}
