package main

import (
	"context"
	"fmt"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/staff"
)

// addStaff updates or creates a staff.Staff
func (cli *commandLine) addStaff(name, email string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	var roles []string
	if isAdmin {
		roles = []string{staff.RoleAdmin}
	}

	member, err := cli.staffSvc.GetByEmail(ctx, email)
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		ns := staff.NewStaff{Name: name, Email: email, Roles: roles}
		if err = ns.Validate(cli.validate, cli.staffSvc); err != nil {
			return err
		}
		if member, err = cli.staffSvc.Create(ctx, ns); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "created %s <%s> (%s)\n", member.Name, member.Email, member.ID)
		return nil
	}

	active := true
	us := staff.UpdateStaff{Name: name, IsActive: &active}
	if isAdmin && !member.IsAdmin() {
		us.Roles = append(append([]string{}, member.Roles...), staff.RoleAdmin)
	}
	if err = us.Validate(member, cli.validate, cli.staffSvc); err != nil {
		return err
	}
	if member, err = cli.staffSvc.Update(ctx, member.ID, us); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "updated %s <%s> (%s)\n", member.Name, member.Email, member.ID)
	return nil
}
