package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/desertthunder/playlistd/internal/shared"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// NewStore opens the session store selected by c.Session.Store and returns it with a function releasing its
// resources.
//
//   - memory: process-local; sessions end with the process
//   - sqlite: sessions table in c.Database.Path, migrated on open
//   - redis: keys in the server at c.Redis.Addr
func NewStore(ctx context.Context, c *shared.Config) (scs.Store, func() error, error) {
	switch c.Session.Store {
	case shared.StoreMemory, "":
		store := memstore.New()
		return store, func() error { store.StopCleanup(); return nil }, nil

	case shared.StoreSQLite:
		db, err := shared.OpenDatabase(c.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite session store: %w", err)
		}
		store := sqlite3store.New(db)
		return store, func() error {
			store.StopCleanup()
			return db.Close()
		}, nil

	case shared.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, errors.Join(
				fmt.Errorf("%w: redis session store at %s: %v", shared.ErrServiceUnavailable, c.Redis.Addr, err),
				client.Close(),
			)
		}
		return goredisstore.New(client), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown session store %q", shared.ErrInvalidConfig, c.Session.Store)
	}
}
