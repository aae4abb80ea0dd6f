// cmd/seed/main.go loads the default product types.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"time"

	"github.com/anikmoz/green-firm-house/internal/config"
	"github.com/anikmoz/green-firm-house/internal/infra"
	"github.com/anikmoz/green-firm-house/internal/model"

	"github.com/rs/zerolog/log"
)

var productTypes = []string{"Tomatoes", "Potatoes", "Onions", "Cucumbers", "Milk", "Honey"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := infra.NewDatabase(ctx, cfg.DatabaseURL, cfg.DBConnectTries, cfg.DBConnectBackoff)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	created := 0
	for _, name := range productTypes {
		pt := model.ProductType{Name: name}
		res := db.WithContext(ctx).Where(model.ProductType{Name: name}).FirstOrCreate(&pt)
		if res.Error != nil {
			log.Fatal().Err(res.Error).Str("name", name).Msg("seed failed")
		}
		created += int(res.RowsAffected)
	}
	log.Info().Int("created", created).Int("total", len(productTypes)).Msg("product types seeded")
}
