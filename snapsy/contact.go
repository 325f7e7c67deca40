// snapsy/contact.go
package snapsy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ContactInput is the public contact form payload.
type ContactInput struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Message string `validate:"required"`
}

// SaveContactMessage validates and persists the message. Messages are
// append-only and unrelated to users or posts.
func (d *Database) SaveContactMessage(ctx context.Context, in ContactInput) (*ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: verrs[0].Field(), Reason: "failed on " + verrs[0].Tag()}
		}
		return nil, err
	}
	msg := &ContactMessage{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Message:   in.Message,
		CreatedAt: time.Now().UTC(),
	}
	query := `
        INSERT INTO contact_messages (id, name, email, message, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := d.pool.Exec(ctx, query, msg.ID, msg.Name, msg.Email, msg.Message, msg.CreatedAt); err != nil {
		return nil, translateErr(err)
	}
	return msg, nil
}
