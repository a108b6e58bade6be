package analytics

import (
	"context"
	"fmt"

	"inkraft/internal/config"

	"gorm.io/gorm"
)

// Open selects the store named by ANALYTICS_STORE. The returned close
// function is safe to call for either backend.
func Open(ctx context.Context, cfg *config.Config, db *gorm.DB) (Store, func(context.Context) error, error) {
	switch cfg.AnalyticsStore {
	case "", StoreSQL:
		return NewSQLStore(db), func(context.Context) error { return nil }, nil
	case StoreMongo:
		s, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported ANALYTICS_STORE %q", cfg.AnalyticsStore)
	}
}
