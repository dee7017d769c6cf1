package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/siddarth16/coldscale/internal/store"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "API key management commands",
}

var apiKeySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the API key",
	Long:  `Set the key clients must present on /api/v1 requests. Only a bcrypt hash is stored.`,
	RunE:  runAPIKeySet,
}

var apiKeyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the API key (open access)",
	RunE:  runAPIKeyClear,
}

func init() {
	apiKeyCmd.AddCommand(apiKeySetCmd, apiKeyClearCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

func runAPIKeySet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Print("Enter API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm API key: ")
	keyBytes2, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	fmt.Println()

	key := string(keyBytes)
	if key != string(keyBytes2) {
		return fmt.Errorf("keys do not match")
	}
	if len(key) < 10 {
		return fmt.Errorf("key must be at least 10 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	if err := store.NewSettingsStore(st).SaveAPIKeyHash(string(hash)); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}

	fmt.Println("API key updated")
	return nil
}

func runAPIKeyClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	if err := store.NewSettingsStore(st).SaveAPIKeyHash(""); err != nil {
		return fmt.Errorf("failed to clear key: %w", err)
	}

	fmt.Println("API key cleared; the API now accepts unauthenticated requests")
	return nil
}
