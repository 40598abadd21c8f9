package cmd

import (
	"github.com/speakeasy-api/gitsync/internal/config"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set the commit identity, default remote or access token",
	Long:  `Stores settings in ~/.gitsync/config.yaml. Any value can also be supplied as a GITSYNC_ prefixed environment variable.`,
	Args:  cobra.NoArgs,
	RunE:  configureExec,
}

func configureInit() {
	configureCmd.Flags().String("name", "", "author name recorded on commits")
	configureCmd.Flags().String("email", "", "author email recorded on commits")
	configureCmd.Flags().String("remote", "", "the remote used when none is given")
	configureCmd.Flags().String("set-token", "", "the access token used for fetch and push")
	rootCmd.AddCommand(configureCmd)
}

func configureExec(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	email, err := cmd.Flags().GetString("email")
	if err != nil {
		return err
	}
	remote, err := cmd.Flags().GetString("remote")
	if err != nil {
		return err
	}
	token, err := cmd.Flags().GetString("set-token")
	if err != nil {
		return err
	}

	l := log.From(cmd.Context())

	if name == "" && email == "" && remote == "" && token == "" {
		l.Printf("author: %s <%s>", config.GetAuthorName(), config.GetAuthorEmail())
		l.Printf("remote: %s", config.GetRemote())
		return nil
	}

	if name != "" || email != "" {
		if name == "" {
			name = config.GetAuthorName()
		}
		if email == "" {
			email = config.GetAuthorEmail()
		}
		if err := config.SetIdentity(name, email); err != nil {
			return err
		}
	}
	if remote != "" {
		if err := config.SetRemote(remote); err != nil {
			return err
		}
	}
	if token != "" {
		if err := config.SetToken(token); err != nil {
			return err
		}
	}

	l.Success("configuration saved")
	return nil
}
