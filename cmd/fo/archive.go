package main

import (
	"fmt"
	"os"

	"fo-go/internal/app"
	"fo-go/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passphraseEnv, when set, is used instead of prompting.
const passphraseEnv = "FO_PASSPHRASE"

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage encrypted catalog archives",
}

var archiveFetchCmd = &cobra.Command{
	Use:   "fetch OUT",
	Short: "Download and decrypt the latest catalog archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		passphrase, err := archivePassphrase(cfg, "Passphrase: ", false)
		if err != nil {
			return err
		}

		out, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[0], err)
		}

		version, err := app.FetchArchive(cfg, out, passphrase)
		if err != nil {
			out.Close()
			os.Remove(args[0])
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", args[0], err)
		}

		fmt.Printf("Fetched catalog version %d to %s\n", version, args[0])
		return nil
	},
}

var archiveKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the archive encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		passphrase, err := archivePassphrase(cfg, "New passphrase: ", true)
		if err != nil {
			return err
		}
		if err := app.SetupArchiveKeys(cfg, passphrase); err != nil {
			return err
		}

		fmt.Printf("Archive keys ready (%s)\n", cfg.Archive.Encryption.Type)
		return nil
	},
}

var archiveValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the archive vault and keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.ValidateArchive(cfg); err != nil {
			return err
		}
		fmt.Println("Archive OK")
		return nil
	},
}

// archivePassphrase reads the passphrase for age encryption. Other encryption
// types need none.
func archivePassphrase(cfg *config.Config, prompt string, confirm bool) (string, error) {
	if cfg.Archive.Encryption.Type != "age" {
		return "", nil
	}
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for passphrase prompt: set %s", passphraseEnv)
	}

	p, err := readPassword(fd, prompt)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("empty passphrase")
	}
	if confirm {
		again, err := readPassword(fd, "Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		if again != p {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return p, nil
}

func readPassword(fd int, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
