package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type seedPrice struct {
	Amount   string
	FromDate time.Time
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedDemoOrder(db)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) {
	date := func(year int) time.Time {
		return time.Date(year, time.January, 1, 10, 30, 0, 0, time.UTC)
	}
	products := map[string][]seedPrice{
		"Product 1": {
			{Amount: "100.50", FromDate: date(1999)},
			{Amount: "200.50", FromDate: date(1989)},
			{Amount: "300.50", FromDate: date(2000)},
		},
		"Product 2": {
			{Amount: "100.50", FromDate: time.Now().UTC().Truncate(time.Second)},
			{Amount: "200.50", FromDate: date(1989)},
			{Amount: "300.50", FromDate: date(1977)},
		},
	}

	log.Println("Seeding Products...")
	for name, prices := range products {
		var productID string
		err := db.QueryRow(`
			INSERT INTO products (id, name) VALUES (gen_random_uuid(), $1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id;
		`, name).Scan(&productID)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", name, err)
			continue
		}
		for _, price := range prices {
			_, err := db.Exec(`
				INSERT INTO prices (id, product_id, amount, effective_from)
				VALUES (gen_random_uuid(), $1, $2, $3)
				ON CONFLICT (product_id, effective_from) DO NOTHING;
			`, productID, price.Amount, price.FromDate)
			if err != nil {
				log.Printf("Failed to seed price for %s: %v", name, err)
			}
		}
	}
}

func seedDemoOrder(db *sql.DB) {
	log.Println("Seeding Demo Order...")

	var productID string
	if err := db.QueryRow(`SELECT id FROM products WHERE name = 'Product 1'`).Scan(&productID); err != nil {
		log.Printf("Failed to look up Product 1: %v", err)
		return
	}

	orderDate := time.Date(2000, time.January, 1, 10, 30, 0, 0, time.UTC)
	var orderID string
	err := db.QueryRow(`
		INSERT INTO orders (id, email, order_date)
		VALUES (gen_random_uuid(), 'customer1@test.test', $1)
		ON CONFLICT (email, order_date) DO UPDATE SET email = EXCLUDED.email
		RETURNING id;
	`, orderDate).Scan(&orderID)
	if err != nil {
		log.Printf("Failed to seed demo order: %v", err)
		return
	}

	// The 1999 entry is the one in effect at the order date.
	_, err = db.Exec(`
		INSERT INTO order_lines (id, order_id, product_id, product_name, amount, effective_from, quantity)
		SELECT gen_random_uuid(), $1, $2, 'Product 1', '100.50', $3, 3
		WHERE NOT EXISTS (SELECT 1 FROM order_lines WHERE order_id = $1);
	`, orderID, productID, time.Date(1999, time.January, 1, 10, 30, 0, 0, time.UTC))
	if err != nil {
		log.Printf("Failed to seed demo order line: %v", err)
	}
}
