package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ShopperCookie identifies a shopper's cart and sign-in across requests.
const ShopperCookie = "shopper_id"

type shopperKey struct{}

// WithShopper makes sure every request carries a shopper ID, issuing a new
// cookie when the client has none.
func WithShopper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(ShopperCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ShopperCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), shopperKey{}, id)))
	})
}

// ShopperID returns the shopper ID set by WithShopper, or "".
func ShopperID(r *http.Request) string {
	id, _ := r.Context().Value(shopperKey{}).(string)
	return id
}
