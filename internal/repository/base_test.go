package repository

import (
	"errors"
	"fmt"
	"testing"

	"realestate/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", gorm.ErrRecordNotFound, models.CodeNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, models.CodeConflict},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), models.CodeConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: favorites.user_id, favorites.property_id"), models.CodeConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, models.CodeNotFound},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, models.CodeNotFound},
		{"app error passes through", models.NewForbiddenError("no"), models.CodeForbidden},
		{"other", errors.New("boom"), models.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, "Thing", 1, "exists")
			assert.True(t, models.HasCode(got, tt.want), "got %v", got)
		})
	}
	assert.NoError(t, translateError(nil, "Thing", 1, ""))
}

func TestPage(t *testing.T) {
	l, o := page(0, -5)
	assert.Equal(t, defaultPageSize, l)
	assert.Zero(t, o)

	l, _ = page(1000, 0)
	assert.Equal(t, maxPageSize, l)
}
