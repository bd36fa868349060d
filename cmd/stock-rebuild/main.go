// stock-rebuild replays the whole movement ledger and rewrites every cached
// quantity. The ledger is the source of truth; a cache that disagrees with
// it is a bug, and this tool repairs the cache without touching the ledger.
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

	if err := models.RebuildCachedQuantities(context.Background()); err != nil {
		log.Fatalf("rebuild: %v", err)
	}
	log.Printf("cached quantities rebuilt from ledger")
}
