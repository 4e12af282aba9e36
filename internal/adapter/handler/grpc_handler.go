package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/itemstore/internal/core/service"
)

// ItemServiceName is the health-check service name reported for the item API.
const ItemServiceName = "itemstore.v1.ItemService"

type GRPCHandler struct {
	itemService *service.ItemService
	health      *health.Server
}

func NewGRPCHandler(itemService *service.ItemService) *GRPCHandler {
	return &GRPCHandler{
		itemService: itemService,
		health:      health.NewServer(),
	}
}

// Register attaches the standard grpc.health.v1 service to server.
func (h *GRPCHandler) Register(server *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(server, h.health)
}

// Refresh pings storage and publishes the result as the serving status.
func (h *GRPCHandler) Refresh(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	err := h.itemService.Ping(ctx)
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ItemServiceName, status)
	return err
}

// Shutdown flips every service to NOT_SERVING so clients stop routing here.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}
