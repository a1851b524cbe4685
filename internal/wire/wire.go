// Package wire provides dependency injection for the weft application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/example/weft/internal/adapters/sqlite"
	"github.com/example/weft/internal/app"
	"github.com/example/weft/internal/db"
	"github.com/example/weft/internal/ports/primary"
)

var (
	batchService    primary.BatchService
	lineageService  primary.LineageService
	oeeService      primary.OEEService
	downtimeService primary.DowntimeService
	fleetService    primary.FleetService
	machineService  primary.MachineService
	once            sync.Once
)

// BatchService returns the singleton BatchService instance.
func BatchService() primary.BatchService {
	once.Do(initServices)
	return batchService
}

// LineageService returns the singleton LineageService instance.
func LineageService() primary.LineageService {
	once.Do(initServices)
	return lineageService
}

// OEEService returns the singleton OEEService instance.
func OEEService() primary.OEEService {
	once.Do(initServices)
	return oeeService
}

// DowntimeService returns the singleton DowntimeService instance.
func DowntimeService() primary.DowntimeService {
	once.Do(initServices)
	return downtimeService
}

// FleetService returns the singleton FleetService instance.
func FleetService() primary.FleetService {
	once.Do(initServices)
	return fleetService
}

// MachineService returns the singleton MachineService instance.
func MachineService() primary.MachineService {
	once.Do(initServices)
	return machineService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	batchRepo := sqlite.NewBatchRepository(database)
	lineageRepo := sqlite.NewLineageRepository(database)
	counterRepo := sqlite.NewCounterRepository(database)
	downtimeRepo := sqlite.NewDowntimeRepository(database)
	machineRepo := sqlite.NewMachineRepository(database)

	// Create services (primary ports implementation)
	batchService = app.NewBatchService(batchRepo, counterRepo, machineRepo)
	lineageService = app.NewLineageService(batchRepo, lineageRepo)
	oeeService = app.NewOEEService(batchRepo, downtimeRepo, machineRepo)
	downtimeService = app.NewDowntimeService(downtimeRepo, machineRepo)
	machineService = app.NewMachineService(machineRepo)

	// The fleet report composes the single-machine analytics services.
	fleetService = app.NewFleetService(machineRepo, oeeService, downtimeService)
}
