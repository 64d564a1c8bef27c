package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
	"github.com/trezcool/mafunzo/core/watch"
	"github.com/trezcool/mafunzo/storage/database"
	"github.com/trezcool/mafunzo/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	core.InitValidators()
	user.InitValidators()
	user.LoadCommonPasswords(conf)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	vidRepo := sqlxrepos.NewVideoRepository(dbx)
	watchRepo := sqlxrepos.NewWatchEventRepository(dbx)

	// start CLI
	cli := commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(dbx),
		vidSvc:   video.NewService(vidRepo),
		watchSvc: watch.NewService(watchRepo),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
