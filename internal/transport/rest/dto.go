package rest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/google/uuid"
)

// AddedToCartNotice is the confirmation returned after an item is put into the cart.
const AddedToCartNotice = "Added to Cart"

type ProductDto struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
}

type EntryDto struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
}

// CartItemDto is an entry together with its current position, the handle used to delete it.
type CartItemDto struct {
	Index int `json:"index"`
	EntryDto
}

// Amount is a sum of prices. Sums that overflow to infinity are sent as null;
// the formatted string still carries them.
type Amount float64

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

// Finite reports whether the amount can be carried as a JSON number.
func (a Amount) Finite() bool {
	f := float64(a)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

type CartDto struct {
	Items          []CartItemDto `json:"items"`
	Count          int           `json:"count"`
	Total          Amount        `json:"total"`
	TotalFormatted string        `json:"total_formatted"`
}

type AddItemDto struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type AddedDto struct {
	Notice string   `json:"notice"`
	Item   EntryDto `json:"item"`
	Cart   CartDto  `json:"cart"`
}

type DeleteItemsDto struct {
	Indices []int `json:"indices" validate:"required,min=1,dive,min=0"`
}

type DeletedDto struct {
	Removed []EntryDto `json:"removed"`
	Cart    CartDto    `json:"cart"`
}

func toProductDto(p catalog.Product) ProductDto {
	return ProductDto{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}

func toProductDtos(list []catalog.Product) []ProductDto {
	dtos := make([]ProductDto, len(list))
	for i, p := range list {
		dtos[i] = toProductDto(p)
	}
	return dtos
}

func toEntryDto(e cart.Entry) EntryDto {
	return EntryDto{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Price:       e.Price,
	}
}

func toEntryDtos(list []cart.Entry) []EntryDto {
	dtos := make([]EntryDto, len(list))
	for i, e := range list {
		dtos[i] = toEntryDto(e)
	}
	return dtos
}

func toCartDto(s cart.State) CartDto {
	items := make([]CartItemDto, len(s.Entries))
	for i, e := range s.Entries {
		items[i] = CartItemDto{Index: i, EntryDto: toEntryDto(e)}
	}
	return CartDto{
		Items:          items,
		Count:          s.Count(),
		Total:          Amount(s.Total),
		TotalFormatted: FormatPrice(s.Total),
	}
}

// FormatPrice renders an amount the way the cart shows it, e.g. "$14.99".
func FormatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
