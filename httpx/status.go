package httpx

import "net/http"

// Status codes the dashboard API and its upstream exchange.
const (
	StatusOK                 = http.StatusOK
	StatusAccepted           = http.StatusAccepted // pipeline work started in the background
	StatusBadRequest         = http.StatusBadRequest
	StatusNotFound           = http.StatusNotFound
	StatusRequestTimeout     = http.StatusRequestTimeout
	StatusConflict           = http.StatusConflict // pipeline already running
	StatusTooManyRequests    = http.StatusTooManyRequests
	StatusInternalError      = http.StatusInternalServerError
	StatusBadGateway         = http.StatusBadGateway
	StatusServiceUnavailable = http.StatusServiceUnavailable
)
