package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/copo/core"
	"github.com/trezcool/copo/core/attainment"
	"github.com/trezcool/copo/core/user"
	logsvc "github.com/trezcool/copo/services/logger"
	"github.com/trezcool/copo/storage/docrepos"
	"github.com/trezcool/copo/storage/docstore"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stderr, "ADMIN", true), conf)
	logger.Enable(false)

	// set up store
	store, err := docstore.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s store: %v", conf.Database.Engine, err), err)
	}

	// start CLI
	usrSvc := user.NewService(docrepos.NewUserRepository(store), nil)
	cli := commandLine{
		store:  store,
		usrSvc: usrSvc,
		attSvc: attainment.NewService(docrepos.NewAcademicRepository(store), usrSvc),
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error(fmt.Sprintf("closing store: %v", cErr), cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
