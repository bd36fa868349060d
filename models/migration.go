package models

import (
	"log"

	"github.com/mkitchen-fabworks/production_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&StockItem{},
		&Component{}, &ComponentBOMEdge{},
		&BuiltItem{}, &BuiltItemBOMEdge{},
		&Product{}, &ProductComponentEdge{},
		&Movement{},
		&Setting{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
