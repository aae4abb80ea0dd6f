package admin

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/anikmoz/green-firm-house/internal/crud"
	"github.com/anikmoz/green-firm-house/internal/dto"
)

// Column renders one field of a record.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// View renders the list and detail screens of an entity from controller
// state.
type View[T crud.Entity] struct {
	Title   string // plural, for the list heading
	Name    string // singular, for messages
	Columns []Column[T]
}

// List writes the list screen: a loading line, the last error, an empty
// notice or a table of Entities.
func (v View[T]) List(w io.Writer, s crud.State[T]) error {
	switch {
	case s.Loading:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case s.HasError():
		_, err := fmt.Fprintf(w, "Error: %s\n", s.ErrorMessage)
		return err
	case len(s.Entities) == 0:
		_, err := fmt.Fprintf(w, "No %s found\n", v.Title)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = strings.ToUpper(c.Header)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, e := range s.Entities {
		cells := make([]string, len(v.Columns))
		for i, c := range v.Columns {
			cells[i] = c.Value(e)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d %s\n", len(s.Entities), s.TotalItems, v.Title)
	return err
}

// Detail writes the focused Entity. lastErr is the error of the Get that
// loaded it; a 404 renders a "not found" line.
func (v View[T]) Detail(w io.Writer, s crud.State[T], lastErr error) error {
	switch {
	case s.Loading:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case crud.IsNotFound(lastErr):
		_, err := fmt.Fprintf(w, "%s not found\n", v.Name)
		return err
	case s.HasError():
		_, err := fmt.Fprintf(w, "Error: %s\n", s.ErrorMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range v.Columns {
		fmt.Fprintf(tw, "%s:\t%s\n", c.Header, c.Value(s.Entity))
	}
	return tw.Flush()
}

var ProductTypeView = View[dto.ProductType]{
	Title: "Product Types",
	Name:  "Product Type",
	Columns: []Column[dto.ProductType]{
		{"ID", func(p dto.ProductType) string { return id(p.ID) }},
		{"Name", func(p dto.ProductType) string { return str(p.Name) }},
	},
}

var CustomerView = View[dto.Customer]{
	Title: "Customers",
	Name:  "Customer",
	Columns: []Column[dto.Customer]{
		{"ID", func(c dto.Customer) string { return id(c.ID) }},
		{"Name", func(c dto.Customer) string { return str(c.Name) }},
		{"Email", func(c dto.Customer) string { return str(c.Email) }},
		{"Phone", func(c dto.Customer) string { return str(c.Phone) }},
		{"Address", func(c dto.Customer) string { return str(c.Address) }},
	},
}

var CustomerBoughtView = View[dto.CustomerBought]{
	Title: "Customer Boughts",
	Name:  "Customer Bought",
	Columns: []Column[dto.CustomerBought]{
		{"ID", func(b dto.CustomerBought) string { return id(b.ID) }},
		{"Weight Type", func(b dto.CustomerBought) string {
			if b.WeightType == nil {
				return ""
			}
			return string(*b.WeightType)
		}},
		{"Unit Price", func(b dto.CustomerBought) string {
			if b.UnitPrice == nil {
				return ""
			}
			return b.UnitPrice.String()
		}},
		{"Total Price", func(b dto.CustomerBought) string {
			if b.TotalPrice == nil {
				return ""
			}
			return b.TotalPrice.String()
		}},
		{"Total Weight", func(b dto.CustomerBought) string {
			if b.TotalWeight == nil {
				return ""
			}
			return strconv.Itoa(int(*b.TotalWeight))
		}},
		{"Delivery Date", func(b dto.CustomerBought) string {
			if b.DeliveryDate == nil {
				return ""
			}
			return b.DeliveryDate.Format(time.DateTime)
		}},
		{"Status", func(b dto.CustomerBought) string {
			if b.Status == nil {
				return ""
			}
			return string(*b.Status)
		}},
		{"Product Type", func(b dto.CustomerBought) string {
			if b.ProductType == nil {
				return ""
			}
			if b.ProductType.Name != nil {
				return *b.ProductType.Name
			}
			return id(b.ProductType.ID)
		}},
		{"Customer", func(b dto.CustomerBought) string {
			if b.Customer == nil {
				return ""
			}
			if b.Customer.Name != nil {
				return *b.Customer.Name
			}
			return id(b.Customer.ID)
		}},
		{"Remarks", func(b dto.CustomerBought) string { return str(b.Remarks) }},
	},
}

func id(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
