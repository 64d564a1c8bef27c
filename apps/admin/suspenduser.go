package main

import (
	"context"
	"time"

	"github.com/trezcool/mafunzo/core/user"
)

// suspendUser deactivates (or reinstates) a user account; suspended users can
// no longer log in, and pending tokens stop refreshing.
func (cli *commandLine) suspendUser(uname string, suspend bool) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if err != nil {
		return err
	}

	active := !suspend
	_, err = cli.usrRepo.UpdateUser(ctx, user.User{
		ID:        usr.ID,
		IsActive:  &active,
		UpdatedAt: time.Now().UTC(),
	})
	return err
}
