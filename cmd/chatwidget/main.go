package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/chatwidget/cmd/chatwidget/cmds"
	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/glazed/pkg/help"
	help_cmd "github.com/go-go-golems/glazed/pkg/help/cmd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatwidget",
	Short: "chatwidget is a floating chat widget and the backend it talks to",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// flags are parsed by now, pick up --log-level and friends
		err := clay.InitLogger()
		cobra.CheckErr(err)
	},
}

func main() {
	helpSystem := help.NewHelpSystem()
	help_cmd.SetupCobraRootCommand(helpSystem, rootCmd)

	err := clay.InitViper("chatwidget", rootCmd)
	cobra.CheckErr(err)
	err = clay.InitLogger()
	cobra.CheckErr(err)

	commands, err := cmds.BuildCommands()
	cobra.CheckErr(err)
	rootCmd.AddCommand(commands...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	cobra.CheckErr(err)
}
