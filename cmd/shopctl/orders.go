package main

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
	"coffeeshop/internal/shop"
)

func orderRows(orders []models.Order) [][]string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID, o.PlacedAt.Local().Format("2006-01-02 15:04"), o.Email,
			strconv.Itoa(o.ItemCount()), "$" + o.Total.StringFixed(2), string(o.Status),
		})
	}
	return rows
}

var orderHeaders = []string{"ORDER", "PLACED", "EMAIL", "ITEMS", "TOTAL", "STATUS"}

func checkoutCmd(a *app) *cobra.Command {
	var form forms.CheckoutForm
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(ctx context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
			if u, ok := s.Session.Current(); ok {
				if !cmd.Flags().Changed("name") {
					form.Name = u.Username
				}
				if !cmd.Flags().Changed("email") {
					form.Email = u.Email
				}
			}
			f, err := form.Checkout()
			if err != nil {
				return err
			}
			order, err := s.Checkout.Place(ctx, f)
			if err != nil && order.ID == "" {
				return err
			}
			a.done("order %s placed, total $%s", order.ID, order.Total.StringFixed(2))
			if perr := a.print(order, func(io.Writer) {}); perr != nil {
				return perr
			}
			return err
		}),
	}
	fl := cmd.Flags()
	fl.StringVar(&form.Name, "name", "", "customer name (defaults to the username)")
	fl.StringVar(&form.Email, "email", "", "customer email (defaults to the account email)")
	fl.StringVar(&form.Address, "address", "", "delivery address")
	fl.StringVar(&form.City, "city", "", "city")
	fl.StringVar(&form.Zip, "zip", "", "zip code")
	fl.StringVar(&form.PaymentMethod, "payment", "card", "payment method")
	return cmd
}

func ordersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List the logged-in customer's orders",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			u, ok := s.Session.Current()
			if !ok {
				return models.ErrUnauthenticated
			}
			orders := s.Checkout.History(u.Email)
			if orders == nil {
				orders = []models.Order{}
			}
			return a.print(orders, func(w io.Writer) {
				renderTable(w, "📦 Your orders", orderHeaders, orderRows(orders))
			})
		}),
	}
}

func adminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back office (admin login required)",
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Sales, orders, products and customers",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			st := console.Stats()
			return a.print(st, func(w io.Writer) {
				renderTable(w, "📊 Dashboard", []string{"SALES", "ORDERS", "PRODUCTS", "CUSTOMERS"}, [][]string{{
					"$" + st.TotalSales.StringFixed(2), strconv.Itoa(st.Orders), strconv.Itoa(st.Products), strconv.Itoa(st.Customers),
				}})
			})
		}),
	}
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Every order, newest first",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			list := console.Orders()
			if list == nil {
				list = []models.Order{}
			}
			return a.print(list, func(w io.Writer) {
				renderTable(w, "📦 Orders", orderHeaders, orderRows(list))
			})
		}),
	}
	status := &cobra.Command{
		Use:   "status <order-id> <Pending|Processing|Delivered>",
		Short: "Change an order's status",
		Args:  cobra.ExactArgs(2),
		RunE: a.withShop(func(ctx context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			st, err := forms.StatusForm{Status: args[1]}.Parse()
			if err != nil {
				return err
			}
			o, err := console.SetOrderStatus(ctx, args[0], st)
			if err != nil {
				return err
			}
			a.done("order %s is now %s", o.ID, o.Status)
			return a.print(o, func(io.Writer) {})
		}),
	}
	users := &cobra.Command{
		Use:   "users",
		Short: "Registered accounts",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			console, err := s.Admin()
			if err != nil {
				return err
			}
			list := console.Users()
			return a.print(list, func(w io.Writer) {
				rows := make([][]string, 0, len(list))
				for _, u := range list {
					rows = append(rows, []string{u.Username, u.Email, string(u.Role)})
				}
				renderTable(w, "👥 Users", []string{"USERNAME", "EMAIL", "ROLE"}, rows)
			})
		}),
	}
	cmd.AddCommand(stats, orders, status, users)
	return cmd
}

