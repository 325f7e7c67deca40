package snapsy

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname"`
	Hash      []byte    `json:"-"`
	DP        string    `json:"dp,omitempty"`
	Bio       string    `json:"bio"`
	Posts     []string  `json:"posts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var validate = validator.New()

// RegisterInput is what the registration form must provide. Password length
// is the weak-credential floor; bcrypt does the rest.
type RegisterInput struct {
	Username string `validate:"required,min=3,max=30"`
	Email    string `validate:"required,email"`
	Fullname string `validate:"required"`
	Password string `validate:"required,min=8"`
}

func NewUser(in RegisterInput) (*User, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: verrs[0].Field(), Reason: "failed on " + verrs[0].Tag()}
		}
		return nil, err
	}
	now := time.Now().UTC()
	u := &User{
		ID:        uuid.New().String(),
		Username:  in.Username,
		Email:     in.Email,
		Fullname:  in.Fullname,
		Posts:     make([]string, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		return err
	}
	u.Hash = hash
	return nil
}

func (u *User) PasswordMatches(input string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(u.Hash, []byte(input))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			//invalid password
			return false, nil
		default:
			//unknown error
			return false, err
		}
	}

	return true, nil
}

// Sanitize clears the credential hash before the user is rendered or encoded.
func (u *User) Sanitize() {
	u.Hash = nil
}
