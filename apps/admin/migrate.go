package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/copo/storage/docstore"
)

var errNotSQL = errors.New("migrations only apply to the sqlite and postgres engines")

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	store, ok := cli.store.(*docstore.SQLStore)
	if !ok {
		return errNotSQL
	}
	return gooseRunFunc(ctx, store.DB(), store.Dialect(), args[0], args[1:]...)
}
