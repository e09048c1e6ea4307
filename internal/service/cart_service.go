package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/catalog"
	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/internal/repository"
	"github.com/joshnavoa/zakeke/internal/zakeke"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

// Upstream is the part of the Zakeke API the cart relay calls
type Upstream interface {
	AddCartItem(ctx context.Context, item *domain.CartItem) (*zakeke.CartItemResult, error)
	UpdateCartItem(ctx context.Context, cartItemID string, item *domain.CartItem) (*zakeke.CartItemResult, error)
	CreateOrder(ctx context.Context, order *domain.OrderRequest) (domain.OrderResult, error)
	GetOrder(ctx context.Context, orderID string) (json.RawMessage, error)
}

// CartService relays customized cart items and checkouts to Zakeke and
// keeps a local copy of each cart
type CartService struct {
	repos           *repository.Repositories
	catalog         *catalog.Source
	upstream        Upstream
	defaultCurrency string
	logger          *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repos *repository.Repositories, source *catalog.Source, upstream Upstream, defaultCurrency string, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &CartService{
		repos:           repos,
		catalog:         source,
		upstream:        upstream,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// AddItem forwards a customized item and stores it once Zakeke accepted it
func (s *CartService) AddItem(ctx context.Context, req AddItemRequest) (*domain.CartItem, error) {
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return nil, &errors.ErrValidation{Message: "productId is required", Fields: map[string]string{"productId": "required"}}
	}
	if strings.TrimSpace(req.CartID) == "" {
		return nil, &errors.ErrValidation{Message: "cartId is required", Fields: map[string]string{"cartId": "required"}}
	}

	item := &domain.CartItem{
		CartID:               req.CartID,
		CustomizationID:      req.CustomizationID,
		ProductID:            productID,
		VariantID:            req.VariantID,
		Quantity:             req.Quantity,
		PreviewImage:         req.PreviewImage,
		CustomizationPayload: req.CustomizationData,
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.CustomizationID == "" {
		item.CustomizationID = uuid.New().String()
	}
	if req.Price != nil && validPrice(*req.Price) {
		item.Price = *req.Price
	} else {
		item.Price = s.catalogPrice(ctx, productID)
	}

	if _, err := s.upstream.AddCartItem(ctx, item); err != nil {
		s.logger.Error("Failed to add cart item to Zakeke",
			zap.String("cart_id", item.CartID),
			zap.String("product_id", item.ProductID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repos.Cart.Add(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Cart item added",
		zap.String("cart_id", item.CartID),
		zap.String("customization_id", item.CustomizationID),
		zap.String("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
		zap.Float64("price", item.Price),
	)
	return item, nil
}

// EditItem updates an existing customization
func (s *CartService) EditItem(ctx context.Context, customizationID string, req EditItemRequest) (*domain.CartItem, error) {
	item, err := s.repos.Cart.GetByCustomizationID(ctx, customizationID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return nil, &errors.ErrValidation{Message: "quantity must be at least 1", Fields: map[string]string{"quantity": "min 1"}}
		}
		item.Quantity = *req.Quantity
	}
	if req.Price != nil && validPrice(*req.Price) {
		item.Price = *req.Price
	}
	if req.PreviewImage != nil {
		item.PreviewImage = *req.PreviewImage
	}
	if len(req.CustomizationData) > 0 {
		item.CustomizationPayload = req.CustomizationData
	}

	if _, err := s.upstream.UpdateCartItem(ctx, customizationID, item); err != nil {
		s.logger.Error("Failed to update cart item in Zakeke", zap.String("customization_id", customizationID), zap.Error(err))
		return nil, err
	}
	if err := s.repos.Cart.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns the stored items of a cart
func (s *CartService) ListItems(ctx context.Context, cartID string) ([]*domain.CartItem, error) {
	return s.repos.Cart.ListByCart(ctx, cartID)
}

// Checkout creates the order upstream and clears the stored cart
func (s *CartService) Checkout(ctx context.Context, req CheckoutRequest) (domain.OrderResult, error) {
	lines := req.Items
	if len(lines) == 0 && req.CartID != "" {
		items, err := s.repos.Cart.ListByCart(ctx, req.CartID)
		if err != nil {
			return domain.OrderResult{}, err
		}
		for _, item := range items {
			lines = append(lines, domain.OrderLine{
				ProductID:         item.ProductID,
				VariantID:         item.VariantID,
				Quantity:          item.Quantity,
				Price:             item.Price,
				CustomizationData: item.CustomizationPayload,
				PreviewImage:      item.PreviewImage,
			})
		}
	}
	if len(lines) == 0 {
		return domain.OrderResult{}, &errors.ErrValidation{Message: "Cart is empty"}
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}
	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	order := &domain.OrderRequest{
		Customer: domain.Customer{
			Email: req.CustomerEmail,
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
		},
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Items:           lines,
		Currency:        currency,
		Notes:           req.Notes,
	}

	result, err := s.upstream.CreateOrder(ctx, order)
	if err != nil {
		s.logger.Error("Failed to create Zakeke order", zap.String("cart_id", req.CartID), zap.Error(err))
		return domain.OrderResult{}, err
	}

	if req.CartID != "" {
		if err := s.repos.Cart.ClearCart(ctx, req.CartID); err != nil {
			s.logger.Warn("Order created but cart could not be cleared", zap.String("cart_id", req.CartID), zap.Error(err))
		}
	}

	s.logger.Info("Order created",
		zap.String("order_id", result.OrderID),
		zap.String("order_number", result.OrderNumber),
		zap.Int("items", len(lines)),
	)
	return result, nil
}

// OrderStatus returns the upstream order as Zakeke reports it
func (s *CartService) OrderStatus(ctx context.Context, orderID string) (json.RawMessage, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, &errors.ErrValidation{Message: "order id is required"}
	}
	return s.upstream.GetOrder(ctx, orderID)
}

func (s *CartService) catalogPrice(ctx context.Context, productID string) float64 {
	if s.catalog == nil {
		return 0
	}
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		s.logger.Warn("No catalog price for cart item, using 0", zap.String("product_id", productID), zap.Error(err))
		return 0
	}
	return p.Price
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
