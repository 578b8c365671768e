// Package rest exposes the catalog and the cart over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/abgdnv/shopcart/internal/catalog"
	apperrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/abgdnv/shopcart/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CatalogReader is the read side of the mirrored catalog.
type CatalogReader interface {
	All() []catalog.Product
	FindByID(id uuid.UUID) (catalog.Product, error)
}

// CartStore is the cart as seen by the handlers.
type CartStore interface {
	AddToCart(name, description string, price float64) (cart.Entry, cart.State)
	Delete(indices ...int) ([]cart.Entry, cart.State, error)
	Snapshot() cart.State
}

type Handler struct {
	catalog  CatalogReader
	cart     CartStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a Handler serving the given catalog and cart.
func NewHandler(catalog CatalogReader, cart CartStore, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the catalog and cart routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAllProducts)
		r.Get("/{id}", h.FindProductByID)
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items", h.DeleteItems)
		r.Delete("/items/{index}", h.DeleteItem)
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAllProducts lists the catalog in the order it was received.
func (h *Handler) FindAllProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list := h.catalog.All()
	mLogger.DebugContext(r.Context(), "Listing catalog", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, toProductDtos(list))
}

// FindProductByID returns a product's detail.
func (h *Handler) FindProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.catalog.FindByID(id)
	if err != nil {
		h.respondLookupError(w, r, mLogger, id, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, toProductDto(found))
}

// GetCart returns the entries with their positions and the running total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.cartDto(r, mLogger, h.cart.Snapshot()))
}

// AddItem copies a catalog product into the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var addDto AddItemDto
	if err := json.NewDecoder(r.Body).Decode(&addDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(addDto); err != nil {
		web.RespondValidationError(w, r, mLogger, err)
		return
	}

	id := uuid.MustParse(addDto.ProductID)
	product, err := h.catalog.FindByID(id)
	if err != nil {
		h.respondLookupError(w, r, mLogger, id, err)
		return
	}

	entry, state := h.cart.AddToCart(product.Name, product.Description, product.Price)
	mLogger.InfoContext(r.Context(), "Product added to cart", "product_id", product.ID, "entry_id", entry.ID, "Name", entry.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, AddedDto{
		Notice: AddedToCartNotice,
		Item:   toEntryDto(entry),
		Cart:   h.cartDto(r, mLogger, state),
	})
}

// DeleteItems removes the entries at the positions listed in the body.
func (h *Handler) DeleteItems(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var deleteDto DeleteItemsDto
	if err := json.NewDecoder(r.Body).Decode(&deleteDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(deleteDto); err != nil {
		web.RespondValidationError(w, r, mLogger, err)
		return
	}
	h.delete(w, r, mLogger, deleteDto.Indices...)
}

// DeleteItem removes the entry at the position in the path.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	index, ok := web.ParsePathIntGte(w, r, mLogger, "index", 0)
	if !ok {
		return
	}
	h.delete(w, r, mLogger, index)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, indices ...int) {
	removed, state, err := h.cart.Delete(indices...)
	if err != nil {
		if errors.Is(err, apperrors.ErrIndexOutOfRange) {
			mLogger.WarnContext(r.Context(), "Rejected cart delete", "indices", indices, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting cart entries", "indices", indices, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to delete cart entries")
		return
	}
	mLogger.InfoContext(r.Context(), "Cart entries deleted", "removed", len(removed))
	web.RespondJSON(w, mLogger, http.StatusOK, DeletedDto{
		Removed: toEntryDtos(removed),
		Cart:    h.cartDto(r, mLogger, state),
	})
}

func (h *Handler) cartDto(r *http.Request, mLogger *slog.Logger, state cart.State) CartDto {
	dto := toCartDto(state)
	if !dto.Total.Finite() {
		mLogger.WarnContext(r.Context(), "Cart total is not a finite number", "total", dto.TotalFormatted, "entries", dto.Count)
	}
	return dto
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, id uuid.UUID, err error) {
	if errors.Is(err, apperrors.ErrProductNotFound) {
		mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
	web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
