package httpserver

import "net/http"

// Controller registers its routes on the server mux. /healthz and /metrics
// are added by the server itself.
type Controller interface {
	AddRoutes(mux *http.ServeMux)
}
