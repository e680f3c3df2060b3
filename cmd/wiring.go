package cmd

import (
	"context"
	"fmt"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/store"
	"github.com/aliyuchatgptt/falgates/internal/store/mock"
	"github.com/aliyuchatgptt/falgates/internal/store/sqlstore"
)

// storeSet bundles the three store interfaces with their closer. With a
// database configured all three are served by the same sqlstore.Store;
// without one they are in-memory and lost on exit.
type storeSet struct {
	staff    store.StaffStore
	checkins store.CheckInStore
	settings store.SettingsStore

	closer func() error
}

func (s *storeSet) Close() {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		fmt.Printf("Warning: closing database: %v\n", err)
	}
}

// openStores connects to the configured database and runs migrations, or
// falls back to in-memory stores when DATABASE_URL is unset.
func openStores(ctx context.Context, cfg *config.Config) (*storeSet, error) {
	if cfg.Database.URL == "" {
		fmt.Println("DATABASE_URL not set, using in-memory stores (data is lost on restart)")
		return &storeSet{
			staff:    mock.NewMockStaffStore(),
			checkins: mock.NewMockCheckInStore(),
			settings: mock.NewMockSettingsStore(),
		}, nil
	}

	fmt.Println("Connecting to database...")
	st, err := sqlstore.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &storeSet{
		staff:    st,
		checkins: st,
		settings: st,
		closer:   st.Close,
	}, nil
}
