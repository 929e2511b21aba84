package cmd

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the agent's fail-safe mode, health, and operating envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := fetchStatus()
			if err != nil {
				return err
			}

			table := uitable.New()
			table.Wrap = true

			table.AddRow("MACHINE:", status.MachineID)
			if status.ClaimedAddress != nil {
				table.AddRow("BUS ADDRESS:", fmt.Sprintf("0x%02X", *status.ClaimedAddress))
			} else {
				table.AddRow("BUS ADDRESS:", "unclaimed")
			}
			table.AddRow("MODE:", string(status.Mode))
			table.AddRow("CLASSIFICATION:", string(status.Health.Classification))
			table.AddRow("HEALTH SCORE:", fmt.Sprintf("%.2f", status.Health.OverallHealthScore))
			table.AddRow("ACTIVE PEERS:", strings.Join(status.Health.ActivePeers, ", "))
			table.AddRow("LOST PEERS:", strings.Join(status.Health.LostPeers, ", "))
			table.AddRow("PARTITION:", fmt.Sprintf("%v", status.Health.PartitionDetected))
			table.AddRow("MAX SPEED:", fmt.Sprintf("%.1f km/h", status.Envelope.MaxAutonomousSpeed))
			table.AddRow("SAFETY RADIUS:", fmt.Sprintf("%.1f m", status.Envelope.MinSafetyZoneRadius))
			table.AddRow("SENSITIVITY:", fmt.Sprintf("%.2f", status.Envelope.ObstacleDetectionSensitivity))
			table.AddRow("STOP THRESHOLD:", fmt.Sprintf("%.1f m", status.Envelope.EmergencyStopThreshold))
			fmt.Fprintln(cmd.OutOrStdout(), table)

			if action := status.LastAction; action != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "ACTIVE FAIL-SAFE ACTION")
				at := uitable.New()
				at.AddRow("  CONTINUE OPERATIONS:", fmt.Sprintf("%v", action.ContinueOperations))
				at.AddRow("  SPEED REDUCTION:", fmt.Sprintf("%.0f%%", (1-action.SpeedReductionFactor)*100))
				at.AddRow("  MARGIN EXPANSION:", fmt.Sprintf("%.1fx", action.SafetyMarginExpansionFactor))
				at.AddRow("  OPERATOR REQUIRED:", fmt.Sprintf("%v", action.RequiresOperatorIntervention))
				fmt.Fprintln(cmd.OutOrStdout(), at)
				for _, step := range action.SafetyActions {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", step)
				}
			}
			return nil
		},
	}
}
