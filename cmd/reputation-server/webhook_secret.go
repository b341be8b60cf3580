package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var webhookSecretCmd = &cobra.Command{
	Use:   "webhook-secret",
	Short: "Set the webhook shared secret and persist it to the config file",
	RunE:  runWebhookSecret,
}

func runWebhookSecret(cmd *cobra.Command, args []string) error {
	fmt.Print("Webhook shared secret: ")
	secret, err := readSecretFromStdin()
	if err != nil {
		return fmt.Errorf("reading webhook secret: %w", err)
	}
	if secret == "" {
		return fmt.Errorf("webhook secret must not be empty")
	}

	cfg.Server.WebhookSecret = secret

	path := cfgFile
	if path == "" {
		path = "config.yaml"
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("saved webhook secret to %s\n", path)
	return nil
}

// readSecretFromStdin reads without echoing when stdin is a terminal,
// falling back to a plain line read for piped input.
func readSecretFromStdin() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
