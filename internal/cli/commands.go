/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"os"

	"libinventory/internal/config"
	"libinventory/internal/domain"
	"libinventory/internal/export"
	"libinventory/internal/storage"
	"libinventory/internal/version"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newAddCommand(a *app) *cobra.Command {
	var title, author, isbn string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withInventory(cmd, func(inv *storage.Inventory) error {
				if !reportAdd(cmd.OutOrStdout(), inv, domain.NewBook(title, author, isbn)) {
					return errRejected
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "book ISBN (unique)")
	_ = cmd.MarkFlagRequired("isbn")
	return cmd
}

func newIssueCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <isbn>",
		Short: "Mark a book as issued",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInventory(cmd, func(inv *storage.Inventory) error {
				if !reportTransition(cmd.OutOrStdout(), inv, inv.IssueByISBN(args[0]), msgIssued) {
					return errRejected
				}
				return nil
			})
		},
	}
}

func newReturnCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <isbn>",
		Short: "Mark an issued book as available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInventory(cmd, func(inv *storage.Inventory) error {
				if !reportTransition(cmd.OutOrStdout(), inv, inv.ReturnByISBN(args[0]), msgReturned) {
					return errRejected
				}
				return nil
			})
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := a.inventory(cmd)
			if err != nil {
				return err
			}
			writeList(cmd.OutOrStdout(), inv.List(), msgEmpty)
			return nil
		},
	}
}

func newSearchCommand(a *app) *cobra.Command {
	var title, isbn string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search by title substring or exact ISBN",
		Long: `Search by title (case-insensitive substring) or by exact ISBN.
Exits with status 1 when nothing matches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := a.inventory(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cmd.Flags().Changed("isbn") {
				b, ok := inv.SearchByISBN(isbn)
				if !ok {
					fmt.Fprintln(w, msgNotFound)
					return errRejected
				}
				fmt.Fprintln(w, b)
				return nil
			}
			lines := render(inv.SearchByTitle(title))
			writeList(w, lines, msgNoMatches)
			if len(lines) == 0 {
				return errRejected
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title substring")
	cmd.Flags().StringVar(&isbn, "isbn", "", "exact ISBN")
	cmd.MarkFlagsOneRequired("title", "isbn")
	cmd.MarkFlagsMutuallyExclusive("title", "isbn")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the inventory to other formats",
	}
	var title string
	pdf := &cobra.Command{
		Use:   "pdf <out.pdf>",
		Short: "Write the inventory as a PDF table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := a.inventory(cmd)
			if err != nil {
				return err
			}
			if err := export.ExportInventoryPDF(inv.Books(), args[0], export.PDFOptions{Title: title}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d book(s) to %s\n", inv.Len(), args[0])
			return nil
		},
	}
	pdf.Flags().StringVar(&title, "title", "", "document title")
	cmd.AddCommand(pdf)
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := storage.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.opts.ConfigPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			written, err := config.Save(config.Defaults(), path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", written)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			b, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprint(w, string(b))
			for _, key := range []string{"inventory.data_file", "logging.level", "logging.format", "logging.source", "logging.file"} {
				if env, ok := config.EnvOverrideFor(key); ok {
					fmt.Fprintf(w, "# %s set by %s\n", key, env)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "libinventory", version.String())
		},
	}
}
