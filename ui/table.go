package ui

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"imgcsv/dto"
	"imgcsv/models"
)

// RenderProducts writes the product result table. Nothing is written for an
// empty list, matching the rule that products render only when the last
// polled response carried a non-empty list.
func RenderProducts(w io.Writer, products []dto.ProductRecord) {
	if len(products) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"S. No.", "Product Name", "Input Image URLs", "Output Image URLs"})
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	for _, p := range products {
		table.Append([]string{
			strconv.Itoa(p.SerialNumber),
			p.ProductName,
			strings.Join(p.InputURLs, "\n"),
			strings.Join(p.OutputURLs, "\n"),
		})
	}
	table.Render()
}

// RenderJobs writes the job history table, newest first.
func RenderJobs(w io.Writer, jobs []*models.Job) {
	if len(jobs) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Request ID", "File", "Status", "Submitted"})
	table.SetAutoWrapText(false)
	for _, j := range jobs {
		table.Append([]string{
			j.RequestID,
			j.FileName,
			string(j.Status),
			j.SubmittedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}
