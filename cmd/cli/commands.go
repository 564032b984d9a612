package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/lumini-statio/stackerly-api/internal/adapter/http/dto"
	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/auth"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/logger"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/postgres"
)

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}

func locationCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "location", Short: "Location operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Create a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodPost, "/api/v1/locations/", nil,
				dto.CreateLocationRequest{Name: args[0]})
		},
	})

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet, "/api/v1/locations/", pageQuery(limit, offset), nil)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")
	cmd.AddCommand(list)

	return cmd
}

func storeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "store", Short: "Store operations"}

	var locationID, opening string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Open a store with its balance account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance := decimal.Zero
			if opening != "" {
				var err error
				if balance, err = decimal.NewFromString(opening); err != nil {
					return fmt.Errorf("invalid opening balance %q: %w", opening, err)
				}
			}
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodPost, "/api/v1/stores/", nil,
				dto.CreateStoreRequest{Name: args[0], LocationID: locationID, OpeningBalance: balance})
		},
	}
	create.Flags().StringVar(&locationID, "location", "", "Location ID")
	create.Flags().StringVar(&opening, "opening-balance", "", "Opening cash balance")
	_ = create.MarkFlagRequired("location")
	cmd.AddCommand(create)

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet, "/api/v1/stores/", pageQuery(limit, offset), nil)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get STORE_ID",
		Short: "Show a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet, "/api/v1/stores/"+url.PathEscape(args[0]), nil, nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "balance STORE_ID",
		Short: "Show a store's cash balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet, "/api/v1/stores/"+url.PathEscape(args[0])+"/balance", nil, nil)
		},
	})

	var itemLimit, itemOffset int
	items := &cobra.Command{
		Use:   "items STORE_ID",
		Short: "List a store's stock items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet,
				"/api/v1/stores/"+url.PathEscape(args[0])+"/items", pageQuery(itemLimit, itemOffset), nil)
		},
	}
	items.Flags().IntVar(&itemLimit, "limit", 0, "Page size")
	items.Flags().IntVar(&itemOffset, "offset", 0, "Page offset")
	cmd.AddCommand(items)

	return cmd
}

func restockCmd(opts *cliOptions) *cobra.Command {
	var req dto.RestockRequest
	var unitCost string

	cmd := &cobra.Command{
		Use:   "restock STORE_ID",
		Short: "Add a stock item to a store and pay for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, err := decimal.NewFromString(unitCost)
			if err != nil {
				return fmt.Errorf("invalid unit cost %q: %w", unitCost, err)
			}
			req.UnitCost = cost
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodPost,
				"/api/v1/stores/"+url.PathEscape(args[0])+"/restock", nil, req)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Item name")
	cmd.Flags().StringVar(&req.ProductType, "type", "", "Product type")
	cmd.Flags().StringVar(&req.Model, "model", "", "Product model")
	cmd.Flags().StringVar(&unitCost, "unit-cost", "", "Cost per unit")
	cmd.Flags().Int64Var(&req.Quantity, "quantity", 0, "Units received")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("unit-cost")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func saleCmd(opts *cliOptions) *cobra.Command {
	var req dto.SaleRequest

	cmd := &cobra.Command{
		Use:   "sale ITEM_ID",
		Short: "Sell units of a stock item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodPost,
				"/api/v1/items/"+url.PathEscape(args[0])+"/sale", nil, req)
		},
	}
	cmd.Flags().Int64Var(&req.Quantity, "quantity", 0, "Units sold")
	cmd.Flags().StringVar(&req.BuyerID, "buyer", "", "Buyer ID (defaults to the token's user)")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func stateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state ITEM_ID STATE",
		Short: "Move a stock item to another state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodPost,
				"/api/v1/items/"+url.PathEscape(args[0])+"/state", nil, dto.ChangeStateRequest{State: args[1]})
		},
	}
}

func itemCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "item ITEM_ID",
		Short: "Show a stock item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet, "/api/v1/items/"+url.PathEscape(args[0]), nil, nil)
		},
	}
}

func ledgerCmd(opts *cliOptions) *cobra.Command {
	var kind, from, to string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "ledger STORE_ID",
		Short: "List a store's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := pageQuery(limit, offset)
			if kind != "" {
				q.Set("kind", kind)
			}
			for name, value := range map[string]string{"from": from, "to": to} {
				if value == "" {
					continue
				}
				if _, err := time.Parse(domain.DateLayout, value); err != nil {
					return fmt.Errorf("invalid --%s date %q, want YYYY-MM-DD", name, value)
				}
				q.Set(name, value)
			}
			return newAPIClient(opts, cmd.OutOrStdout()).do(cmd.Context(), http.MethodGet,
				"/api/v1/stores/"+url.PathEscape(args[0])+"/ledger", q, nil)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Day after the last, YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func purchasesCmd(opts *cliOptions) *cobra.Command {
	var itemID, buyerID string

	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "List purchases of an item or a buyer",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts, cmd.OutOrStdout())
			switch {
			case itemID != "":
				return client.do(cmd.Context(), http.MethodGet, "/api/v1/items/"+url.PathEscape(itemID)+"/purchases", nil, nil)
			case buyerID != "":
				return client.do(cmd.Context(), http.MethodGet, "/api/v1/buyers/"+url.PathEscape(buyerID)+"/purchases", nil, nil)
			default:
				return errors.New("one of --item or --buyer is required")
			}
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "Stock item ID")
	cmd.Flags().StringVar(&buyerID, "buyer", "", "Buyer ID, or me")

	return cmd
}

func reconcileCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [STORE_ID]",
		Short: "Check balances against the ledger, for one store or all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts, cmd.OutOrStdout())
			if len(args) == 1 {
				return client.do(cmd.Context(), http.MethodGet, "/api/v1/stores/"+url.PathEscape(args[0])+"/reconciliation", nil, nil)
			}
			return client.do(cmd.Context(), http.MethodGet, "/api/v1/reconciliation", nil, nil)
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	newMigrator := func() *postgres.Migrator {
		return postgres.NewMigrator(databaseURL, path, logger.New(logger.Config{Level: "info", Format: "console"}))
	}

	cmd := &cobra.Command{Use: "migrate", Short: "Database schema migrations"}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", os.Getenv("MIGRATIONS_PATH"), "Migrations directory (embedded when empty)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newMigrator().Up()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newMigrator().Down()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := newMigrator().Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	var secret, userID, email, role string
	var ttl time.Duration

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed JWT for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{
				ID:    userID,
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	issue.Flags().StringVar(&userID, "user", "", "User ID")
	issue.Flags().StringVar(&email, "email", "", "User email")
	issue.Flags().StringVar(&role, "role", string(domain.RoleClerk), "admin, clerk or viewer")
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = issue.MarkFlagRequired("user")

	cmd := &cobra.Command{Use: "token", Short: "Authentication tokens"}
	cmd.AddCommand(issue)
	return cmd
}
