package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	UserKeyPrefix    = "user:%d"
	ProjectKeyPrefix = "project:%s"

	FeaturedProjectsKey = "projects:featured"
	TrendingProjectsKey = "projects:trending"
	CompetitionsKey     = "competitions:list"
	ActiveOrRecentKey   = "competitions:active-or-recent"
	TagsKey             = "tags:list"
	TagCategoriesKey    = "tags:categories"
	TagsGroupedKey      = "tags:grouped:%t"
)

const (
	UserTTL        = 5 * time.Minute
	ProjectTTL     = 10 * time.Minute
	ProjectListTTL = 2 * time.Minute
	CompetitionTTL = 5 * time.Minute
	TagTTL         = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProjectKey(projectID uuid.UUID) string {
	return fmt.Sprintf(ProjectKeyPrefix, projectID)
}

func TagsGroupedKeyFor(withProjects bool) string {
	return fmt.Sprintf(TagsGroupedKey, withProjects)
}

// Invalidate drops keys. Errors are logged; a stale entry expires with its TTL.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateProject drops the project and every public listing that may embed it.
func InvalidateProject(ctx context.Context, projectID uuid.UUID) {
	Invalidate(ctx,
		ProjectKey(projectID),
		FeaturedProjectsKey,
		TrendingProjectsKey,
		CompetitionsKey,
		ActiveOrRecentKey,
		TagsGroupedKeyFor(true),
	)
}

// InvalidateCompetitions drops the competition listings.
func InvalidateCompetitions(ctx context.Context) {
	Invalidate(ctx, CompetitionsKey, ActiveOrRecentKey)
}

// InvalidateTags drops the tag listings.
func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagsKey, TagCategoriesKey, TagsGroupedKeyFor(true), TagsGroupedKeyFor(false))
}
