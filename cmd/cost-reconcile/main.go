// cost-reconcile recomputes every cached cost bottom-up and clears stale
// markers. Run it after a partial failure (or any time costs are suspect);
// the sweep is idempotent.
package main

import (
	"context"
	"log"

	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/mkitchen-fabworks/production_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()

	stale, err := models.StaleCostCount(ctx)
	if err != nil {
		log.Fatalf("counting stale costs: %v", err)
	}
	log.Printf("entities flagged stale before sweep: %d", stale)

	if err := models.ReconcileCosts(ctx); err != nil {
		log.Fatalf("reconcile: %v", err)
	}

	stale, err = models.StaleCostCount(ctx)
	if err != nil {
		log.Fatalf("counting stale costs: %v", err)
	}
	log.Printf("reconcile complete; entities still stale: %d", stale)
}
