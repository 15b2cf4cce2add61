package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/followbot/internal/channels"
)

func followupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "followups",
		Short: "Print the effective follow-up chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			chain, err := cfg.FollowUpChain()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STEP\tDELAY\tMESSAGE")
			for i, s := range chain.Steps() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, s.Delay, channels.Preview(s.Message, 80))
			}
			return tw.Flush()
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg.MaskedCopy(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
