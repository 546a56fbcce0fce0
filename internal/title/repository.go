// Package title tracks the ranked titles of the community: one per category
// (overall plus one per faction), held by whoever currently tops that
// category, and free-form custom titles granted by administrators.
package title

import (
	"context"
	"errors"

	"github.com/mkovalev/armello-stats-bot/internal/domain"
)

var ErrTitleNotFound = errors.New("title not found")

type Repository interface {
	// ByCategory returns nil when the category has no title row yet.
	ByCategory(ctx context.Context, category string) (*domain.Title, error)
	ByPlayer(ctx context.Context, playerID int64) ([]*domain.Title, error)
	List(ctx context.Context) ([]*domain.Title, error)
	// Upsert creates or replaces the single title row of a category.
	Upsert(ctx context.Context, t *domain.Title) error

	CustomTitles(ctx context.Context, playerID int64) ([]*domain.CustomTitle, error)
	AddCustomTitle(ctx context.Context, playerID int64, text string) (*domain.CustomTitle, error)
	RemoveCustomTitle(ctx context.Context, id int64) error
}
