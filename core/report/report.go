// Package report formats a student's CO attainment for download (CSV) and for the terminal.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/attainment"
	"github.com/trezcool/copo/core/user"
)

const notAvailable = "N/A"

var columns = []string{"CO Code", "Description", "Total Marks", "Obtained Marks", "Attainment %"}

// Performance is the performance report of one student.
type Performance struct {
	Student    user.User
	Attainment map[string]attainment.COAttainment // by CO id
}

// Filename is the suggested download name of the report.
func (p Performance) Filename() string {
	return fmt.Sprintf("student_%s_performance.csv", p.Student.ID)
}

func (p Performance) semester() string {
	if p.Student.Semester == 0 {
		return notAvailable
	}
	return strconv.Itoa(p.Student.Semester)
}

// rows returns one row per CO, ordered by CO code.
func (p Performance) rows() [][]string {
	ids := make([]string, 0, len(p.Attainment))
	for id := range p.Attainment {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := p.Attainment[ids[i]], p.Attainment[ids[j]]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return ids[i] < ids[j]
	})

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		att := p.Attainment[id]
		rows = append(rows, []string{
			att.Code,
			att.Description,
			formatFloat(att.TotalMarks),
			formatFloat(att.ObtainedMarks),
			formatFloat(att.AttainmentPercentage),
		})
	}
	return rows
}

// WriteCSV writes the report: a title row, the student's details, an empty row,
// then the CO attainment table.
func (p Performance) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"Student Performance Report"},
		{"Student Name", p.Student.Name},
		{"Email", p.Student.Email},
		{"Semester", p.semester()},
		{},
		columns,
	}
	records = append(records, p.rows()...)
	if err := cw.WriteAll(records); err != nil {
		return errors.Wrap(err, "writing csv records")
	}
	return nil
}

// RenderTable prints the report as a table.
func (p Performance) RenderTable(w io.Writer) {
	heading := color.New(color.FgYellow)
	_, _ = heading.Fprintf(w, "\nStudent Performance Report\n")
	_, _ = fmt.Fprintf(w, "%s <%s> - semester %s\n", p.Student.Name, p.Student.Email, p.semester())

	rows := p.rows()
	if len(rows) == 0 {
		_, _ = color.New(color.FgRed).Fprintln(w, "No marks recorded.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(columns)
	table.AppendBulk(rows)
	table.Render()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
