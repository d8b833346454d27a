package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tetherhq/tether/internal/config"
	"github.com/tetherhq/tether/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a login account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List login accounts",
	RunE:  runUserList,
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}

func openStore() (*store.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(dbPath)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	username := args[0]
	password, err := readPassword()
	if err != nil {
		return err
	}

	u, err := db.CreateUser(username, password)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (%s)\n", u.Username, u.ID)
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	// Piped input, e.g. echo pass | tether user add name
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := db.ListUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%s  %s  created %s\n", u.ID, u.Username,
			time.UnixMilli(u.CreatedAt).Format("2006-01-02"))
	}
	return nil
}
