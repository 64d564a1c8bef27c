package inmemdb

import (
	"context"

	"github.com/trezcool/mafunzo/core/watch"
)

type watchEventRepository struct {
	db *watchTable
}

func NewWatchEventRepository(db *DB) watch.Repository {
	return &watchEventRepository{db: db.watch}
}

func (repo *watchEventRepository) key(userID, videoID string) string {
	return userID + "/" + videoID
}

func (repo *watchEventRepository) GetEvent(_ context.Context, userID, videoID string) (watch.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[repo.key(userID, videoID)]; ok {
		return *evt, nil
	}
	return watch.Event{}, watch.ErrEventNotFound
}

func (repo *watchEventRepository) QueryUserEvents(_ context.Context, userID string) ([]watch.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]watch.Event, 0)
	for _, evt := range repo.db.table {
		if evt.UserID == userID {
			events = append(events, *evt)
		}
	}
	return events, nil
}

func (repo *watchEventRepository) QueryAllEvents(_ context.Context) ([]watch.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]watch.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		events = append(events, *evt)
	}
	return events, nil
}

func (repo *watchEventRepository) UpsertEvent(_ context.Context, evt watch.Event) (watch.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[repo.key(evt.UserID, evt.VideoID)] = &evt
	return evt, nil
}
