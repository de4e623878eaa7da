package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
)

type AddItemInput struct {
	ProductID uint `json:"productId" validate:"required"`
	Variant   struct {
		Size  string `json:"size"`
		Color string `json:"color"`
	} `json:"variant"`
	Quantity int `json:"quantity" validate:"required,gte=1,lte=100"`
}

type CartService struct {
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
	}
}

func (s *CartService) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	return s.carts.ForUser(ctx, userID)
}

// AddItem puts quantity units of the selected variant in the cart, merging
// with an existing line for the same product, size and colour.
func (s *CartService) AddItem(ctx context.Context, userID uint, in AddItemInput) (*models.Cart, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	size, color := strings.TrimSpace(in.Variant.Size), strings.TrimSpace(in.Variant.Color)

	p, err := s.products.FindByID(ctx, in.ProductID, true)
	if err != nil {
		return nil, err
	}
	v, ok := p.FindVariant(size, color)
	if !ok {
		return nil, apperr.NotFound("Selected variant of %s is not available", p.Name)
	}

	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var existing *models.CartItem
	for i := range cart.Items {
		it := &cart.Items[i]
		if it.ProductID == p.ID && strings.EqualFold(it.Size, size) && strings.EqualFold(it.Color, color) {
			existing = it
			break
		}
	}

	want := in.Quantity
	if existing != nil {
		want += existing.Quantity
	}
	if avail := p.Available(v); avail < want {
		return nil, apperr.InsufficientStock("Only %d units of %s available", avail, p.Name)
	}

	if existing != nil {
		err = s.carts.SetQuantity(ctx, existing.ID, want)
	} else {
		err = s.carts.AddItem(ctx, &models.CartItem{
			CartID:    cart.ID,
			ProductID: p.ID,
			Size:      size,
			Color:     color,
			Price:     p.UnitPrice(v),
			Quantity:  in.Quantity,
		})
	}
	if err != nil {
		return nil, err
	}
	return s.carts.ForUser(ctx, userID)
}

// UpdateItemQuantity sets a line's quantity after checking current stock.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 || quantity > 100 {
		return nil, apperr.ValidationFields(map[string]string{"quantity": "The quantity must be between 1 and 100."})
	}
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.carts.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	p := item.Product
	if p == nil || !p.IsActive {
		return nil, apperr.NotFound("Product is no longer available")
	}
	v, ok := p.FindVariant(item.Size, item.Color)
	if !ok {
		return nil, apperr.NotFound("Selected variant of %s is not available", p.Name)
	}
	if avail := p.Available(v); avail < quantity {
		return nil, apperr.InsufficientStock("Only %d units of %s available", avail, p.Name)
	}
	if err := s.carts.SetQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	return s.carts.ForUser(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (*models.Cart, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return s.carts.ForUser(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uint) (*models.Cart, error) {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return s.carts.ForUser(ctx, userID)
}
