// snapsy/config.go
package snapsy

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config collects everything the process reads from the environment. Built
// once in main and passed down; nothing else touches os.Getenv.
type Config struct {
	Addr        string
	DatabaseURL string
	MediaDir    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ContactFrom  string
	ContactTo    string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment directly")
	}
	return Config{
		Addr:         getenv("ADDR", ":8080"),
		DatabaseURL:  getenv("DATABASE_URL", ""),
		MediaDir:     getenv("MEDIA_DIR", "./public/images/uploads"),
		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		ContactFrom:  getenv("CONTACT_FROM", ""),
		ContactTo:    getenv("CONTACT_TO", ""),
	}
}

// Mailer returns the SMTP mailer when configured, otherwise a no-op.
func (c Config) Mailer() Mailer {
	if c.SMTPHost == "" || c.ContactTo == "" {
		log.Println("SMTP not configured, contact messages will only be persisted")
		return NopMailer{}
	}
	return NewSMTPMailer(c.SMTPHost, c.SMTPPort, c.SMTPUsername, c.SMTPPassword, c.ContactFrom, c.ContactTo)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
