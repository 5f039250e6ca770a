package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-homework/internal/config"
	"github.com/Tomlord1122/todo-homework/internal/mail"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "migrate", "createsuperuser"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestServeMigratesByDefault(t *testing.T) {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		migrate, err := c.Flags().GetBool("migrate")
		require.NoError(t, err)
		assert.True(t, migrate)
	}
}

func TestCreateSuperuserRequiresFlags(t *testing.T) {
	for _, name := range []string{"email", "name", "password"} {
		f := createSuperuserCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, []string{"true"}, f.Annotations["cobra_annotation_bash_completion_one_required_flag"])
	}
}

func TestNewMailer(t *testing.T) {
	cfg := &config.Config{DefaultFromEmail: "noreply@example.com", EmailFromName: "Todo"}
	assert.IsType(t, &mail.ConsoleMailer{}, newMailer(cfg))

	cfg.SendGridAPIKey = "SG.key"
	assert.IsType(t, &mail.SendGridMailer{}, newMailer(cfg))
}
