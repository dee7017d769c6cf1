package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siddarth16/coldscale/internal/contactcsv"
	"github.com/siddarth16/coldscale/internal/store"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Contact list commands",
}

var contactsImportCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import contacts from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsImport,
}

var contactsExportCmd = &cobra.Command{
	Use:   "export [file.csv]",
	Short: "Export all contacts to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsExport,
}

func init() {
	contactsCmd.AddCommand(contactsImportCmd, contactsExportCmd)
	rootCmd.AddCommand(contactsCmd)
}

func runContactsImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	contacts := store.NewContactStore(st)
	existing, err := contacts.List()
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	result := contactcsv.Import(f, existing)
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, e)
	}

	if len(result.Contacts) > 0 {
		if err := contacts.AddAll(result.Contacts); err != nil {
			return fmt.Errorf("failed to save contacts: %w", err)
		}
	}

	fmt.Printf("Imported %d contacts (%d duplicates skipped, %d rows with errors)\n",
		len(result.Contacts), len(result.Duplicates), len(result.Errors))
	return nil
}

func runContactsExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	contacts, err := store.NewContactStore(st).List()
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if err := contactcsv.Export(f, contacts); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Printf("Exported %d contacts to %s\n", len(contacts), args[0])
	return nil
}
