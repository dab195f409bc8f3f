package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/google/uuid"

	"github.com/kevinwiwaha/larabench/internal/config"
	"github.com/kevinwiwaha/larabench/internal/hash"
	"github.com/kevinwiwaha/larabench/internal/models"
	"github.com/kevinwiwaha/larabench/internal/store"
)

// Seeds the catalog and a demo user so the load-test rigs have something to
// hammer. Re-running tops the table up to the requested count.
func main() {
	products := flag.Int("products", 1000, "number of products to seed")
	stock := flag.Int("stock", 10000, "initial stock per product")
	flag.Parse()

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := store.Open(context.Background(), configuration)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Where("email = ?", "demo@larabench.local").Count(&userCount).Error; err != nil {
		log.Fatalf("count users: %v", err)
	}
	if userCount == 0 {
		passwordHash, err := hash.HashPassword("password")
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		user := models.User{Name: "Demo User", Email: "demo@larabench.local", PasswordHash: passwordHash}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("seed user: %v", err)
		}
		log.Printf("seeded demo user id=%d", user.ID)
	}

	var have int64
	if err := db.Model(&models.Product{}).Count(&have).Error; err != nil {
		log.Fatalf("count products: %v", err)
	}

	created := 0
	for i := have; i < int64(*products); i++ {
		p := models.Product{
			SKU:         uuid.NewString(),
			Name:        fmt.Sprintf("Product %d", i+1),
			Description: fmt.Sprintf("Benchmark catalog entry %d", i+1),
			Price:       float64(rand.Intn(99900)+100) / 100,
			Stock:       *stock,
		}
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("seed product: %v", err)
		}
		created++
	}

	log.Printf("done: %d products present (%d created), stock=%d each", *products, created, *stock)
}
