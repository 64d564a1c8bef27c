// Package inmemdb provides mutex-guarded in-memory repositories. They back
// handler tests and local development without a running database.
package inmemdb

import (
	"sync"

	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
	"github.com/trezcool/mafunzo/core/watch"
)

type (
	DB struct {
		user  *userTable
		video *videoTable
		watch *watchTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	videoTable struct {
		sync.RWMutex
		table  map[string]*video.Video
		orders map[string]*video.CategoryOrder
	}

	watchTable struct {
		sync.RWMutex
		table map[string]*watch.Event // keyed by userID+"/"+videoID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		video: &videoTable{
			table:  make(map[string]*video.Video),
			orders: make(map[string]*video.CategoryOrder),
		},
		watch: &watchTable{table: make(map[string]*watch.Event)},
	}
	return db, nil
}
