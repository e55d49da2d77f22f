package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"storefront/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case formatTable, formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (want table or json)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

// renderResource prints v as a table when it is a known content type.
func renderResource(w io.Writer, v any) error {
	switch items := v.(type) {
	case []models.BlogPost:
		t := newTable(w, table.Row{"ID", "Title", "Category", "Author", "Date"})
		for _, p := range items {
			t.AppendRow(table.Row{p.ID, p.Title, p.Category, p.Author, p.Date})
		}
		footer(t, len(items), 5)
		t.Render()
	case *models.BlogPost:
		t := newTable(w, table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"ID", items.ID},
			{"Title", items.Title},
			{"Category", items.Category},
			{"Author", fmt.Sprintf("%s (%s)", items.Author, items.Role)},
			{"Date", items.Date},
			{"Read time", items.ReadTime},
			{"Excerpt", items.Excerpt},
		})
		t.Render()
	case []models.PortfolioProject:
		t := newTable(w, table.Row{"ID", "Title", "Category", "Tags"})
		for _, p := range items {
			t.AppendRow(table.Row{p.ID, p.Title, p.Category, strings.Join(p.Tags, ", ")})
		}
		footer(t, len(items), 4)
		t.Render()
	case []models.Product:
		t := newTable(w, table.Row{"ID", "Title", "Type", "Price", "Rating"})
		for _, p := range items {
			t.AppendRow(table.Row{p.ID, p.Title, p.Type, fmt.Sprintf("$%.2f", p.Price), fmt.Sprintf("%.1f (%d)", p.Rating, p.Reviews)})
		}
		footer(t, len(items), 5)
		t.Render()
	case *models.Product:
		t := newTable(w, table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"ID", items.ID},
			{"Title", items.Title},
			{"Type", items.Type},
			{"Category", items.Category},
			{"Price", fmt.Sprintf("$%.2f", items.Price)},
			{"Rating", fmt.Sprintf("%.1f (%d reviews)", items.Rating, items.Reviews)},
			{"Tags", strings.Join(items.Tags, ", ")},
		})
		t.Render()
	case []models.TeamMember:
		t := newTable(w, table.Row{"ID", "Name", "Role"})
		for _, m := range items {
			t.AppendRow(table.Row{m.ID, m.Name, m.Role})
		}
		footer(t, len(items), 3)
		t.Render()
	case []models.Service:
		t := newTable(w, table.Row{"ID", "Title", "Price"})
		for _, s := range items {
			t.AppendRow(table.Row{s.ID, s.Title, priceRange(s.Price)})
		}
		footer(t, len(items), 3)
		t.Render()
	case []string:
		t := newTable(w, table.Row{"Category"})
		for _, c := range items {
			t.AppendRow(table.Row{c})
		}
		t.Render()
	case *models.ContactResponse:
		t := newTable(w, table.Row{"Success", "Message", "ID"})
		t.AppendRow(table.Row{items.Success, items.Message, items.ID})
		t.Render()
	default:
		return writeJSON(w, v)
	}
	return nil
}

// footer adds a total row spanning a table of the given width.
func footer(t table.Writer, n, width int) {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
	}
	row[width-1] = fmt.Sprintf("%d total", n)
	t.AppendFooter(row)
}

func priceRange(p *models.PriceRange) string {
	if p == nil {
		return "on request"
	}
	return fmt.Sprintf("%.0f-%.0f %s", p.Min, p.Max, p.Currency)
}
