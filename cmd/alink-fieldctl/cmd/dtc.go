package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newDTCCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dtc",
		Short: "List the agent's active diagnostic trouble codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := fetchStatus()
			if err != nil {
				return err
			}

			if len(status.ActiveDTCs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active diagnostic trouble codes.")
				return nil
			}

			table := uitable.New()
			table.Wrap = true
			table.AddRow("PRI", "SPN", "FMI", "SOURCE", "SEVERITY", "COUNT", "ACTION")
			for _, dtc := range status.ActiveDTCs {
				action := dtc.RecommendedAction
				if dtc.RequiresImmediateAction {
					action = "IMMEDIATE: " + action
				}
				table.AddRow(
					dtc.PriorityLevel,
					dtc.SPN,
					dtc.FMI,
					fmt.Sprintf("0x%02X", dtc.SourceAddress),
					string(dtc.Severity),
					dtc.OccurrenceCount,
					action,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
