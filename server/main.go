// cmd/snapsy-server/main.go
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"

	"github.com/jyoti24703-netizen/snapsy-final/snapsy"
)

func main() {
	cfg := snapsy.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Initialize the database connection.
	db, err := snapsy.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to the database.")
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Could not create tables: %v", err)
	}

	media, err := snapsy.NewMediaStore(cfg.MediaDir)
	if err != nil {
		log.Fatalf("Could not initialize media store: %v", err)
	}

	// Sessions live in Postgres next to everything else.
	session := scs.New()
	session.Store = pgxstore.New(db.Pool())
	session.Lifetime = 7 * 24 * time.Hour
	session.Cookie.HttpOnly = true
	session.Cookie.SameSite = http.SameSiteLaxMode

	handlers, err := snapsy.NewHandlers(db, media, cfg.Mailer(), session)
	if err != nil {
		log.Fatalf("Could not create handlers: %v", err)
	}

	r := mux.NewRouter()
	handlers.RegisterRoutes(r)

	svr := &http.Server{
		Addr:    cfg.Addr,
		Handler: handlers.Session.LoadAndSave(r),
	}
	log.Printf("Starting snapsy server on %s", cfg.Addr)
	if err := svr.ListenAndServe(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
