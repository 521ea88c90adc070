package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Landing pages the payment provider redirects the customer back to. They
// read no state; the order status arrives separately via the status-update
// endpoint.

const successPage = `<!DOCTYPE html>
<div style="font-family: sans-serif; text-align: center; margin-top: 50px; color: #2E7D32;">
  <h1>Payment approved!</h1>
  <p>Thank you for your purchase.</p>
  <a href="/">Back to the store</a>
</div>`

const failurePage = `<!DOCTYPE html>
<div style="font-family: sans-serif; text-align: center; margin-top: 50px; color: #C62828;">
  <h1>The payment was not completed</h1>
  <p>There was a problem with the payment.</p>
  <a href="/">Back and try again</a>
</div>`

const pendingPage = `<!DOCTYPE html>
<div style="font-family: sans-serif; text-align: center; margin-top: 50px; color: #EF6C00;">
  <h1>Payment pending</h1>
  <p>Your payment is being processed.</p>
  <a href="/">Back to the store</a>
</div>`

func RegisterPages(r *chi.Mux) {
	r.Get("/success", servePage(successPage))
	r.Get("/failure", servePage(failurePage))
	r.Get("/pending", servePage(pendingPage))
}

func servePage(html string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
	}
}
