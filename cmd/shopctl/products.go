package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
	"coffeeshop/internal/shop"
)

func productRows(products []models.Product) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10), p.Name, "$" + p.Price.StringFixed(2), p.Category,
		})
	}
	return rows
}

func productsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"menu"},
		Short:   "Browse and manage the catalog",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			products := s.Catalog.List()
			if category != "" {
				products = s.Catalog.ListCategory(category)
			}
			return a.print(products, func(w io.Writer) {
				renderTable(w, "☕ Menu", []string{"ID", "NAME", "PRICE", "CATEGORY"}, productRows(products))
			})
		}),
	}
	list.Flags().StringVarP(&category, "category", "c", "", "only this category")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
			id, err := forms.ParseProductID(args[0])
			if err != nil {
				return err
			}
			p, err := s.Catalog.Get(id)
			if err != nil {
				return err
			}
			return a.print(p, func(w io.Writer) {
				fmt.Fprintf(w, "%s  $%s  [%s]\n%s\n%s\n", titleStyle.Render(p.Name), p.Price.StringFixed(2), p.Category, oneLine(p.Description), p.Image)
			})
		}),
	}

	cmd.AddCommand(list, show, productAddCmd(a), productUpdateCmd(a), productDeleteCmd(a), productExportCmd(a))
	return cmd
}

func productFlags(cmd *cobra.Command, f *forms.ProductForm, price *string) {
	fl := cmd.Flags()
	fl.StringVar(&f.Name, "name", "", "product name")
	fl.StringVar(price, "price", "", "price, e.g. 4.99")
	fl.StringVar(&f.Category, "category", "", "category")
	fl.StringVar(&f.Description, "description", "", "description")
	fl.StringVar(&f.Image, "image", "", "image URL")
}

func productAddCmd(a *app) *cobra.Command {
	var (
		form  forms.ProductForm
		price string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product (admin)",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(ctx context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			form.Price = price
			draft, err := form.Draft()
			if err != nil {
				return err
			}
			p, err := console.AddProduct(ctx, draft)
			if err != nil {
				return err
			}
			a.done("added %s (#%d)", p.Name, p.ID)
			return a.print(p, func(io.Writer) {})
		}),
	}
	productFlags(cmd, &form, &price)
	return cmd
}

func productUpdateCmd(a *app) *cobra.Command {
	var (
		form  forms.ProductForm
		price string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a product (admin); omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: a.withShop(func(ctx context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			id, err := forms.ParseProductID(args[0])
			if err != nil {
				return err
			}
			cur, err := s.Catalog.Get(id)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			keep := func(name string, field *string, value string) {
				if !fl.Changed(name) {
					*field = value
				}
			}
			keep("name", &form.Name, cur.Name)
			keep("category", &form.Category, cur.Category)
			keep("description", &form.Description, cur.Description)
			keep("image", &form.Image, cur.Image)
			keep("price", &price, cur.Price.String())
			form.Price = price

			draft, err := form.Draft()
			if err != nil {
				return err
			}
			p, err := console.UpdateProduct(ctx, id, draft)
			if err != nil {
				return err
			}
			a.done("updated %s (#%d)", p.Name, p.ID)
			return a.print(p, func(io.Writer) {})
		}),
	}
	productFlags(cmd, &form, &price)
	return cmd
}

func productDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: a.withShop(func(ctx context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			id, err := forms.ParseProductID(args[0])
			if err != nil {
				return err
			}
			if err := console.DeleteProduct(ctx, id); err != nil {
				return err
			}
			a.done("deleted product #%d", id)
			return nil
		}),
	}
}

func productExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as CSV (admin)",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return console.ExportCatalog(a.out)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := console.ExportCatalog(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	return cmd
}
