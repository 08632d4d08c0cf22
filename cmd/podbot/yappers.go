package main

import (
	"fmt"
	"net/http"

	"github.com/edhtools/podbot/internal/botapi"
	"github.com/edhtools/podbot/internal/util/style"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
)

var yappersCmd = &cobra.Command{
	Use:   "yappers <guild-id>",
	Args:  cobra.ExactArgs(1),
	Short: "Print the message leaderboard of a guild",
}

func init() {
	p := yappersCmd.Flags()
	endpoint := p.StringP(
		"endpoint", "e", "http://127.0.0.1:8080/api/bot",
		"server endpoint",
	)
	token := p.StringP(
		"token", "t", "",
		"api token",
	)
	limit := p.IntP(
		"limit", "n", 10,
		"number of users to show",
	)
	if err := yappersCmd.MarkFlagRequired("token"); err != nil {
		panic(err)
	}

	yappersCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		client := botapi.NewClient(botapi.ClientOptions{
			Endpoint: *endpoint,
			Token:    *token,
		}, http.DefaultClient)
		rsp, err := client.Yappers(cmd.Context(), &botapi.YappersRequest{
			Guild: args[0],
			Limit: *limit,
		})
		if err != nil {
			return fmt.Errorf("fetch leaderboard: %w", err)
		}

		out := colorable.NewColorableStdout()
		fmt.Fprintln(out, style.WithS("Message Leaderboard", 1))
		for i, row := range rsp.Rows {
			fmt.Fprintf(out, "%2d. %s: %d messages\n", i+1, row.User, row.Count)
		}
		if len(rsp.Rows) == 0 {
			fmt.Fprintln(out, "no messages recorded yet")
		}
		return nil
	}
}
