package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/report"
	"github.com/trezcool/copo/core/user"
)

func (cli *commandLine) report(ctx context.Context, studentID string) error {
	student, err := cli.usrSvc.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if !student.IsStudent() {
		return user.ErrNotFound
	}
	att, err := cli.attSvc.StudentCOAttainment(ctx, student.ID)
	if err != nil {
		return errors.Wrap(err, "computing student co attainment")
	}
	report.Performance{Student: student, Attainment: att}.RenderTable(cli.out)
	return nil
}
