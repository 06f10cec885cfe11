package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/db"
	"github.com/carebook/clinic-booking/internal/directory"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedProviders(context.Background(), pool, 100); err != nil {
		log.Fatalf("seed providers: %v", err)
	}

	log.Println("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d providers", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	genders := []string{"male", "female"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		location := directory.LabLocations[gofakeit.Number(0, len(directory.LabLocations)-1)]
		gender := genders[gofakeit.Number(0, 1)]
		desc := gofakeit.Sentence(12)
		price := gofakeit.Price(200, 2000)
		rating := float64(gofakeit.Number(25, 50)) / 10

		// Opening hour between 08:00 and 11:00, working day of 6-9 hours.
		open := booking.ClockMinute(gofakeit.Number(8, 11) * 60)
		close := open + booking.ClockMinute(gofakeit.Number(6, 9)*60)

		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, name, specialty, location, gender, description,
				price, rating, open_minute, close_minute, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		`, id, name, spec, location, gender, desc, price, rating, int(open), int(close))
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("providers seeded")
	return nil
}
