package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// addUser creates an admin or promotes the user owning email
func (cli *commandLine) addUser(ctx context.Context, name, email, pwd string) error {
	usr, err := cli.usrSvc.Promote(ctx, name, email, pwd)
	if err != nil {
		return errors.Wrap(err, "promoting user")
	}
	_, _ = fmt.Fprintf(cli.out, "%s <%s> is now an admin\n", usr.Name, usr.Email)
	return nil
}
