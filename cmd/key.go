package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/plotloom/plotloom-cli/internal/config"
	"github.com/plotloom/plotloom-cli/internal/keyring"
)

var keyPassphrase string

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the encrypted API key",
	Long: `Key stores your API key encrypted at rest under ~/.plotloom/key.enc, sealed
with a passphrase. Commands read the passphrase from --passphrase or the
PLOTLOOM_PASSPHRASE environment variable.`,
}

func keyPass() (string, error) {
	if keyPassphrase != "" {
		return keyPassphrase, nil
	}
	if p := os.Getenv("PLOTLOOM_PASSPHRASE"); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("passphrase required (-p or PLOTLOOM_PASSPHRASE)")
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Encrypt and store the API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := keyPass()
		if err != nil {
			return err
		}
		dir, err := cfgpkg.Dir()
		if err != nil {
			return err
		}
		if err := keyring.Set(dir, pass, args[0]); err != nil {
			return err
		}
		fmt.Println("✓ API key stored (encrypted)")
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Decrypt and print a masked form of the stored key",
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := keyPass()
		if err != nil {
			return err
		}
		dir, err := cfgpkg.Dir()
		if err != nil {
			return err
		}
		key, err := keyring.Get(dir, pass)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Stored key: %s\n", maskKey(key))
		return nil
	},
}

var keyRemoveCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"clear"},
	Short:   "Delete the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cfgpkg.Dir()
		if err != nil {
			return err
		}
		if err := keyring.Remove(dir); err != nil {
			return err
		}
		fmt.Println("✓ API key removed")
		return nil
	},
}

func maskKey(k string) string {
	k = strings.TrimSpace(k)
	if len(k) <= 8 {
		return strings.Repeat("*", len(k))
	}
	return k[:4] + strings.Repeat("*", len(k)-8) + k[len(k)-4:]
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyRemoveCmd)
	keyCmd.PersistentFlags().StringVarP(&keyPassphrase, "passphrase", "p", "", "passphrase protecting the key file")
}
