package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/internetyev/paafetch/pkg/auth"
	"github.com/internetyev/paafetch/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage DataForSEO credentials",
	Long: `Manage stored DataForSEO API credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (PAAFETCH_API_LOGIN / PAAFETCH_API_PASSWORD)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store DataForSEO credentials securely",
	Long: `Store DataForSEO API credentials in the system keychain or an
encrypted file. You will be prompted for the API login and password
from your DataForSEO dashboard.

The optional account name lets you keep several credential sets, for
example separate work and personal plans. Without a name the account
is stored as "default".`,
	Example: `  # Interactive login as the default account
  paafetch auth login

  # Store under a named account
  paafetch auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove stored credentials",
	Long: `Remove stored DataForSEO credentials. Without an account name the
"default" account is removed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored DataForSEO accounts with passwords masked.`,
	Run:   runAuthList,
}

// importCmd represents the auth import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import credentials from a legacy JSON file",
	Long: `Import DataForSEO credentials from an old-style JSON file with
api_login and api_password keys, and store them securely. The source
file is left untouched; delete it yourself once you have verified the
import.`,
	Example: `  paafetch auth import ~/.dataforseo.json
  paafetch auth import creds.json --name work`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

var importName string

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importName, "name", "default", "account name to store the credentials under")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Account %q already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("DataForSEO API login: ")
	loginInput, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read login", err.Error())
		os.Exit(1)
	}
	login := strings.TrimSpace(loginInput)
	if login == "" {
		ui.PrintError("API login is required")
		os.Exit(1)
	}

	fmt.Print("DataForSEO API password (hidden): ")
	password, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	fmt.Println()
	if password == "" {
		ui.PrintError("API password is required")
		os.Exit(1)
	}

	account := &auth.Account{
		Name:         name,
		Login:        login,
		Password:     password,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Removed account: %s", name))
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Run 'paafetch auth login' to add one.")
		return
	}

	for _, account := range accounts {
		clean := auth.SanitizeAccount(account)
		fmt.Printf("%s  login=%s  password=%s  modified=%s\n",
			ui.Cyan(clean.Name),
			clean.Login,
			ui.Dim(clean.Password),
			clean.LastModified.Format(time.RFC3339))
	}
}

func runImport(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	account, err := auth.ImportLegacyFile(args[0], importName)
	if err != nil {
		ui.PrintError("Import failed", err.Error())
		os.Exit(1)
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Imported credentials as account %q", account.Name))
	ui.PrintWarning("Delete the plaintext source file once you have verified the import")
}

// readPassword reads a password without echoing it.
func readPassword() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
