package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/internal/ports/inbound"
)

// GroceryAPIHandlers handles grocery plan and recommendation requests
type GroceryAPIHandlers struct {
	grocery   inbound.GroceryService
	validator *security.ValidationService
	now       func() time.Time
	logger    *zap.Logger
}

// NewGroceryAPIHandlers creates grocery handlers
func NewGroceryAPIHandlers(grocery inbound.GroceryService, validator *security.ValidationService, logger *zap.Logger) *GroceryAPIHandlers {
	return &GroceryAPIHandlers{
		grocery:   grocery,
		validator: validator,
		now:       time.Now,
		logger:    logger.Named("grocery-api"),
	}
}

const (
	maxCartItems    = 50
	maxCartQuantity = 1000
	maxCartName     = 100
)

// RecommendRequest asks for recipes using the cart. Both fields are read
// leniently: a diet that is not a string means veg and a cart that is not an
// array means an empty cart.
type RecommendRequest struct {
	Diet json.RawMessage `json:"diet"`
	Cart json.RawMessage `json:"cart"`
}

// cartItemRequest is one cart line as sent by the client
type cartItemRequest struct {
	Name     json.RawMessage `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
}

// WeeklyPlan handles GET /api/grocery
func (h *GroceryAPIHandlers) WeeklyPlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	plan := h.grocery.WeeklyPlan(shared.ParseDiet(q.Get("diet")), q.Get("week"), h.now())
	writeJSON(w, h.logger, http.StatusOK, plan)
}

// Recommend handles POST /api/grocery/recommend. It never rejects a request:
// unreadable input is treated as an empty cart.
func (h *GroceryAPIHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Debug("Unreadable recommend request, using an empty cart", zap.Error(err))
		req = RecommendRequest{}
	}

	rec := h.grocery.Recommend(r.Context(), assistant.RecommendRequest{
		Diet: shared.ParseDiet(jsonText(req.Diet)),
		Cart: h.coerceCart(req.Cart),
	})
	writeJSON(w, h.logger, http.StatusOK, rec)
}

// coerceCart keeps the named lines of a cart, capped at maxCartItems, with
// quantities clamped to [0, maxCartQuantity]
func (h *GroceryAPIHandlers) coerceCart(raw json.RawMessage) []assistant.CartItem {
	var lines []json.RawMessage
	if err := json.Unmarshal(raw, &lines); err != nil {
		return []assistant.CartItem{}
	}

	cart := make([]assistant.CartItem, 0, len(lines))
	for _, line := range lines {
		if len(cart) == maxCartItems {
			break
		}
		var item cartItemRequest
		if err := json.Unmarshal(line, &item); err != nil {
			continue
		}
		name := h.validator.SanitizeText(jsonText(item.Name), maxCartName)
		if name == "" {
			continue
		}
		cart = append(cart, assistant.CartItem{Name: name, Quantity: clampQuantity(jsonText(item.Quantity))})
	}
	return cart
}

func clampQuantity(text string) int {
	q, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(q) || q <= 0 {
		return 0
	}
	if q > maxCartQuantity {
		return maxCartQuantity
	}
	return int(q)
}
