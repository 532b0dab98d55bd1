// Command seed populates a development database with a few accounts and
// events so the API can be exercised end to end without a registration
// flow. It is idempotent on email: rerunning it skips users that already
// exist.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-events/gatepass/internal/config"
	"github.com/campus-events/gatepass/internal/database"
	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/utils"
)

type seedUser struct {
	name     string
	email    string
	password string
	role     string
}

var seedUsers = []seedUser{
	{"Admin", "admin@example.com", "admin-dev-password", model.RoleAdmin},
	{"Gate Manager", "manager@example.com", "manager-dev-password", model.RoleEventManager},
	{"Raj Kapoor", "raj@example.com", "user-dev-password", model.RoleUser},
	{"Asha Verma", "asha@example.com", "user-dev-password", model.RoleUser},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	for _, s := range seedUsers {
		if _, err := users.GetByEmail(ctx, s.email); err == nil {
			log.Printf("user %s already present, skipping", s.email)
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatalf("lookup %s: %v", s.email, err)
		}
		hash, err := utils.HashPassword(s.password, bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password for %s: %v", s.email, err)
		}
		id, err := users.Create(ctx, &model.User{
			Name:         s.name,
			Email:        s.email,
			PasswordHash: hash,
			Role:         s.role,
			IsActive:     true,
		})
		if err != nil {
			log.Fatalf("create %s: %v", s.email, err)
		}
		log.Printf("created user %s (id=%d, role=%s)", s.email, id, s.role)
	}

	events := repository.NewEventRepo(db)
	now := time.Now().UTC()
	for _, e := range []model.Event{
		{
			Name:        "Freshers Night",
			Description: "Welcome party for the incoming batch.",
			StartTime:   now.Add(7 * 24 * time.Hour),
			Location:    "Main Auditorium",
			Mode:        model.ModeOffline,
			TotalSeats:  300,
			IsLive:      true,
		},
		{
			Name:        "Tech Talk: Systems at Scale",
			Description: "Guest lecture, streamed live.",
			StartTime:   now.Add(14 * 24 * time.Hour),
			Location:    "Online",
			Mode:        model.ModeOnline,
			TotalSeats:  1000,
			IsLive:      true,
		},
	} {
		ev := e
		if err := events.Create(ctx, &ev); err != nil {
			log.Fatalf("create event %q: %v", ev.Name, err)
		}
		log.Printf("created event %q (id=%d, seats=%d)", ev.Name, ev.ID, ev.TotalSeats)
	}
}
