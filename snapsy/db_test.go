package snapsy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			"duplicate email",
			&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			ErrDuplicateEmail,
		},
		{
			"duplicate username",
			&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"},
			ErrDuplicateHandle,
		},
		{
			"no rows",
			pgx.ErrNoRows,
			ErrNotFound,
		},
		{
			"wrapped no rows",
			fmt.Errorf("query failed: %w", pgx.ErrNoRows),
			ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translateErr(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("translateErr(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranslateErrForeignKeyViolation(t *testing.T) {
	got := translateErr(&pgconn.PgError{Code: "23503", ConstraintName: "fk_owner"})
	var ve *ValidationError
	if !errors.As(got, &ve) {
		t.Fatalf("translateErr(23503) = %v, want ValidationError", got)
	}
}

func TestTranslateErrPassthrough(t *testing.T) {
	if got := translateErr(nil); got != nil {
		t.Errorf("translateErr(nil) = %v, want nil", got)
	}
	plain := errors.New("connection reset")
	if got := translateErr(plain); got != plain {
		t.Errorf("translateErr(plain) = %v, want the error unchanged", got)
	}
}
