package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/config"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "gitsync",
	Short: "Keep a working copy in sync with its remote and resolve merge conflicts",
	Long: `gitsync pulls, inspects and pushes a git working copy without shelling out to git.
When a pull conflicts, the merge is recorded as a session that survives restarts:
	- list conflicts with "gitsync conflicts" and inspect them with "gitsync show"
	- settle each path with "gitsync resolve"
	- finish with "gitsync complete" or give up with "gitsync abort"
`,
	RunE: rootExec,
}

var l = log.New().WithLevel(log.LevelInfo)

func init() {
	// We want our commands to be sorted in defined order, not alphabetically
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

func Init(version, artifactArch string) {
	rootCmd.PersistentFlags().String("logLevel", string(log.LevelInfo), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))
	rootCmd.PersistentFlags().StringP("dir", "C", ".", "a path inside the repository to operate on")
	rootCmd.PersistentFlags().String("token", "", "access token used for fetch and push (defaults to $GITSYNC_TOKEN or the configured token)")

	statusInit()
	pullInit()
	incomingInit()
	conflictsInit()
	showInit()
	resolveInit()
	completeInit()
	abortInit()
	commitInit()
	pushInit()
	logInit()
	configureInit()
}

func CmdForTest(version, artifactArch string) *cobra.Command {
	setupRootCmd(version, artifactArch)

	return rootCmd
}

func Execute(version, artifactArch string) {
	setupRootCmd(version, artifactArch)

	if err := rootCmd.Execute(); err != nil {
		l.Error("", zap.Error(err))
		l.WithInteractiveOnly().PrintfStyled(styles.DimmedItalic, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		os.Exit(1)
	}
}

func setupRootCmd(version, artifactArch string) {
	rootCmd.Version = version + "\n" + artifactArch
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setLogLevel(cmd)
	}

	Init(version, artifactArch)
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel)).WithWriter(cmd.ErrOrStderr())
	ctx := log.With(cmd.Context(), l)
	cmd.SetContext(ctx)

	return nil
}

func rootExec(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
