package checkout

import (
	"time"
)

const (
	DefaultGatewayTimeout = 45 * time.Second
	DefaultBackendTimeout = 30 * time.Second
)

type GatewayHandler struct {
	gateway PaymentGateway
	timeout time.Duration
}

func NewGatewayHandler(gateway PaymentGateway, timeout time.Duration) *GatewayHandler {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return &GatewayHandler{
		gateway: gateway,
		timeout: timeout,
	}
}

type BackendHandler struct {
	backend Backend
	timeout time.Duration
}

func NewBackendHandler(backend Backend, timeout time.Duration) *BackendHandler {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &BackendHandler{
		backend: backend,
		timeout: timeout,
	}
}
