package model

import "time"

// CartItem lives only in the session; it is never written to the database.
// Price is kept as the submitted string, the cart demo does no arithmetic.
type CartItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// PlanTravelLite is the label recorded whenever a logged-in user adds to cart.
const PlanTravelLite = "Travel-Lite"

// PlanRecord is an append-only marketing log row.
type PlanRecord struct {
	ID        int64     `json:"id"        db:"id"`
	Plan      string    `json:"plan"      db:"plan"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
