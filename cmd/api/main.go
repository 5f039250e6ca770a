// Command api runs the todo service and its maintenance tasks.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tomlord1122/todo-homework/internal/config"
	"github.com/Tomlord1122/todo-homework/internal/database"
	"github.com/Tomlord1122/todo-homework/internal/mail"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "api",
	Short:        "Multi-user todo service",
	Long:         "Runs the todo HTTP service. Without a subcommand it behaves like \"api serve\".",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	addServeFlags(rootCmd)
}

// setup loads the configuration and connects to the database.
func setup() (*config.Config, database.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newMailer(cfg *config.Config) mail.Mailer {
	if cfg.SendGridAPIKey == "" {
		log.Println("SENDGRID_API_KEY not set, printing outgoing mail to stdout")
		return mail.NewConsoleMailer(os.Stdout, cfg.DefaultFromEmail)
	}
	return mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.DefaultFromEmail, cfg.EmailFromName)
}
