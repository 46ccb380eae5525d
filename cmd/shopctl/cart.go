package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
	"coffeeshop/internal/shop"
)

func printCart(a *app, v models.CartView) error {
	if v.Items == nil {
		v.Items = []models.CartItem{}
	}
	return a.print(v, func(w io.Writer) {
		rows := make([][]string, 0, len(v.Items))
		for _, item := range v.Items {
			rows = append(rows, []string{
				strconv.FormatInt(item.ID, 10), item.Name, strconv.Itoa(item.Quantity),
				"$" + item.Price.StringFixed(2), "$" + item.Subtotal().StringFixed(2),
			})
		}
		renderTable(w, "🛒 Cart", []string{"ID", "NAME", "QTY", "PRICE", "SUBTOTAL"}, rows)
		fmt.Fprintf(w, "%d item(s), total $%s\n", v.Count, v.Total.StringFixed(2))
	})
}

// cartOp parses the product id argument, runs op and prints the cart.
func cartOp(a *app, op func(ctx context.Context, s *shop.Shop, id int64, args []string) error) func(*cobra.Command, []string) error {
	return a.withShop(func(ctx context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
		id, err := forms.ParseProductID(args[0])
		if err != nil {
			return err
		}
		if err := op(ctx, s, id, args[1:]); err != nil {
			return err
		}
		return printCart(a, s.Cart.View())
	})
}

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			return printCart(a, s.Cart.View())
		}),
	}
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product (login required)",
		Args:  cobra.ExactArgs(1),
		RunE: cartOp(a, func(ctx context.Context, s *shop.Shop, id int64, _ []string) error {
			_, err := s.Cart.Add(ctx, id)
			return err
		}),
	}
	remove := &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: cartOp(a, func(ctx context.Context, s *shop.Shop, id int64, _ []string) error {
			return s.Cart.Remove(ctx, id)
		}),
	}
	qty := &cobra.Command{
		Use:   "qty <product-id> <quantity>",
		Short: "Set the quantity of a line; invalid values become 1",
		Args:  cobra.ExactArgs(2),
		RunE: cartOp(a, func(ctx context.Context, s *shop.Shop, id int64, args []string) error {
			_, err := s.Cart.SetQuantity(ctx, id, forms.ParseQuantity(args[0]))
			return err
		}),
	}
	inc := &cobra.Command{
		Use:   "inc <product-id>",
		Short: "Add one to a line",
		Args:  cobra.ExactArgs(1),
		RunE: cartOp(a, func(ctx context.Context, s *shop.Shop, id int64, _ []string) error {
			_, err := s.Cart.Increment(ctx, id)
			return err
		}),
	}
	dec := &cobra.Command{
		Use:   "dec <product-id>",
		Short: "Take one from a line, never below 1",
		Args:  cobra.ExactArgs(1),
		RunE: cartOp(a, func(ctx context.Context, s *shop.Shop, id int64, _ []string) error {
			_, err := s.Cart.Decrement(ctx, id)
			return err
		}),
	}
	empty := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(ctx context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			if err := s.Cart.Clear(ctx); err != nil {
				return err
			}
			return printCart(a, s.Cart.View())
		}),
	}
	cmd.AddCommand(show, add, remove, qty, inc, dec, empty)
	return cmd
}
