package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/thriftly/thriftly/config"
	"github.com/thriftly/thriftly/internal/domain/entity"
	pginfra "github.com/thriftly/thriftly/internal/infrastructure/postgres"
	"github.com/thriftly/thriftly/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	products := pginfra.NewProductRepository(pool)

	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	seller := entity.NewUser("demoSeller", "seller@thriftly.dev", hash, "Demo", "Seller")
	seller.Location = "Jakarta, ID"
	existing, err := users.GetByEmail(seller.Email)
	if err != nil {
		log.Fatalf("failed to check seller: %v", err)
	}
	if existing != nil {
		seller = existing
	} else if err := users.Create(seller); err != nil {
		log.Fatalf("failed to seed seller: %v", err)
	}
	fmt.Printf("seeded user: id=%d email=%s password=%s\n", seller.ID, seller.Email, password)

	op := 120.0
	listings := []entity.ProductData{
		{
			Title:       "Vintage denim jacket",
			Description: "Lightly faded 90s denim jacket, oversized fit.",
			Price:       45,
			Category:    "outerwear",
			Brand:       "Levi's",
			Size:        "M",
			Condition:   "good",
			Color:       "blue",
			Tags:        []string{"vintage", "denim", "90s"},
		},
		{
			Title:         "Leather ankle boots",
			Description:   "Barely worn leather boots, small scuff on the left heel.",
			Price:         60,
			OriginalPrice: &op,
			Category:      "shoes",
			Size:          "one-size",
			Condition:     "like-new",
			Color:         "black",
			Tags:          []string{"leather", "boots"},
		},
		{
			Title:       "Floral summer dress",
			Description: "Flowy midi dress, worn twice.",
			Price:       25,
			Category:    "dresses",
			Size:        "S",
			Condition:   "like-new",
			Tags:        []string{"floral", "summer"},
		},
	}
	for _, data := range listings {
		p := entity.NewProduct(data, seller.ID)
		if err := products.Create(p); err != nil {
			log.Fatalf("failed to seed product %q: %v", data.Title, err)
		}
		fmt.Printf("seeded product: id=%d title=%q\n", p.ID, p.Title)
	}
}
