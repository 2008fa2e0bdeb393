package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/session"
)

// CartHandler serves the shopping-cart demo and the premium page.
type CartHandler struct {
	*View
	carts *service.CartService
}

func NewCartHandler(view *View, carts *service.CartService) *CartHandler {
	return &CartHandler{View: view, carts: carts}
}

// HandleAddToCart appends {item_name, item_price} to the session cart.
//
// HTTP: POST /add_to_cart
//
// For a logged-in user a Travel-Lite plan row is recorded as well. That write
// is fire-and-forget (see CartService.RecordPlan). Anything else that fails
// here is answered with the raw error text and a 500.
func (h *CartHandler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, err)
		return
	}

	sess := session.FromContext(r.Context())
	sess.AddToCart(model.CartItem{
		Name:  r.PostFormValue("item_name"),
		Price: r.PostFormValue("item_price"),
	})

	h.carts.RecordPlan(r.Context(), sess.UserID)

	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.fail(w, err)
		return
	}
	redirect(w, r, "/cart")
}

func (h *CartHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("add to cart failed", slog.String("error", err.Error()))
	http.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
}

// HandleCart renders the session cart, an empty list when there is none.
//
// HTTP: GET /cart
func (h *CartHandler) HandleCart(w http.ResponseWriter, r *http.Request) {
	d := h.data(w, r, "Cart")
	d.Cart = session.FromContext(r.Context()).Cart
	h.render(w, http.StatusOK, "cart", d)
}

// HandlePremium renders the static plans page.
//
// HTTP: GET /premium
func (h *CartHandler) HandlePremium(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "premium", h.data(w, r, "Premium"))
}
