package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/storage"
	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
		Long:  `Import and list the panels, inverters and batteries the matcher looks for.`,
	}

	cmd.AddCommand(catalogImportCmd())
	cmd.AddCommand(catalogListCmd())

	return cmd
}

func catalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import products from a YAML catalog",
		Long: `Insert or update products from a YAML file with a top-level "products" list.
Existing products with the same id are replaced; learned aliases are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			products, err := storage.LoadCatalogFile(args[0])
			if err != nil {
				return common.NewUserError("Could not read catalog "+args[0], err)
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveProducts(ctx, products); err != nil {
				return fmt.Errorf("failed to save products: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d products", len(products))))
			return err
		},
	}
}

func catalogListCmd() *cobra.Command {
	var productType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog products",
		Long:  `Display catalog products, optionally filtered by type (panel, inverter, battery).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var filter *model.ProductType
			if productType != "" {
				t := model.ProductType(strings.ToLower(productType))
				if !t.IsValid() {
					return common.NewUserError(fmt.Sprintf("Unknown product type %q; use panel, inverter or battery", productType), common.ErrInvalidConfig)
				}
				filter = &t
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			products, err := store.GetProducts(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get products: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(products) == 0 {
				_, err = fmt.Fprintln(out, cli.InfoStyle.Render("No products found. Use 'sunwise catalog import' to add some."))
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Type"),
				cli.TableHeaderStyle.Render("Product"),
				cli.TableHeaderStyle.Render("Aliases"))
			for _, p := range products {
				aliases := strings.Join(p.Aliases, ", ")
				if aliases == "" {
					aliases = cli.SubtleStyle.Render("(none)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Type, p.DisplayName(), aliases)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&productType, "type", "t", "", "filter by product type")

	return cmd
}

