package app

import (
	"github.com/stacklok/oparl-sync/internal/notify"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/sync/coordinator"
	"github.com/stacklok/oparl-sync/internal/sync/state"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator schedules and executes sync runs
	SyncCoordinator coordinator.Coordinator

	// StateService persists sources, bodies and runs
	StateService state.SourceStateService

	// AdminService backs the admin HTTP surface and the CLI
	AdminService service.AdminService

	// Outbox publishes the change events written by runs
	Outbox *notify.Outbox

	// Publisher delivers change events downstream
	Publisher notify.Publisher
}
