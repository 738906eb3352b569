package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"coop-server/internal/coop/client"
	"coop-server/internal/coop/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Prints the coop status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			status, err := newClient().Status(ctx)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), status)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "door\t%s\n", doorLabel(status.Door))
			fmt.Fprintf(w, "temp\t%d\n", status.Temp)
			fmt.Fprintf(w, "light\t%d\n", status.Light)
			fmt.Fprintf(w, "uptime\t%d\n", status.Uptime)
			fmt.Fprintf(w, "mode\t%d\n", status.Mode)
			fmt.Fprintf(w, "opening\t%t\n", status.IsOpening)
			fmt.Fprintf(w, "closing\t%t\n", status.IsClosing)
			fmt.Fprintf(w, "read errors\t%d\n", status.ReadErrorCount)
			fmt.Fprintf(w, "write errors\t%d\n", status.WriteErrorCount)
			fmt.Fprintf(w, "busy rejects\t%d\n", status.BusyRejectCount)
			fmt.Fprintf(w, "auto resets\t%d\n", status.AutoResetCount)
			fmt.Fprintf(w, "last read\t%s\n", millisLabel(status.LastSuccessfulRead))
			fmt.Fprintf(w, "last write\t%s\n", millisLabel(status.LastSuccessfulWrite))
			fmt.Fprintf(w, "last error\t%s\n", millisLabel(status.LastError))
			fmt.Fprintf(w, "opens at\t%s\n", status.OpeningTime.Format(time.Kitchen))
			fmt.Fprintf(w, "closes at\t%s\n", status.ClosingTime.Format(time.Kitchen))
			return w.Flush()
		},
	}
	doorCmd = &cobra.Command{
		Use:       "door [open|close|auto]",
		Short:     "Moves the door",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.DoorOpen), string(domain.DoorClose), string(domain.DoorAuto)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := domain.ParseDoorDirection(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			value, err := newClient().CommandDoor(ctx, dir)
			if err != nil {
				return explain(err)
			}
			return printValue(cmd, "door", doorLabel(value))
		},
	}
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Resets the coop board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			value, err := newClient().Reset(ctx)
			if err != nil {
				return explain(err)
			}
			return printValue(cmd, "resets", value)
		},
	}
	readCmd = &cobra.Command{
		Use:       "read [door|temp|light|uptime]",
		Short:     "Prints a single reading",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ReadingDoor), string(domain.ReadingTemp), string(domain.ReadingLight), string(domain.ReadingUptime)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseReadingKind(args[0])
			if err != nil {
				return err
			}
			fresh, _ := cmd.Flags().GetBool("fresh")

			ctx, cancel := requestContext(cmd)
			defer cancel()

			value, err := newClient().Reading(ctx, kind, fresh)
			if err != nil {
				return explain(err)
			}
			return printValue(cmd, string(kind), value)
		},
	}
	timesCmd = &cobra.Command{
		Use:   "times",
		Short: "Prints today's opening and closing times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			coop := newClient()
			opening, err := coop.OpeningTime(ctx)
			if err != nil {
				return err
			}
			closing, err := coop.ClosingTime(ctx)
			if err != nil {
				return err
			}

			if viper.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), map[string]time.Time{"opening": opening, "closing": closing})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opens:  %s\ncloses: %s\n", opening.Format(time.RFC1123), closing.Format(time.RFC1123))
			return nil
		},
	}
	echoCmd = &cobra.Command{
		Use:   "echo [data]",
		Short: "Sends an echo command to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			value, err := newClient().Echo(ctx, args[0])
			if err != nil {
				return explain(err)
			}
			return printValue(cmd, "echo", value)
		},
	}
)

func init() {
	readCmd.Flags().Bool("fresh", false, "read the board instead of the last polled value")
}

func explain(err error) error {
	if errors.Is(err, client.ErrBusy) {
		return fmt.Errorf("%w (try again in a moment)", err)
	}
	return err
}

func doorLabel(value int64) string {
	switch {
	case value == domain.NoReading:
		return "unknown"
	case domain.DoorIsOpen(value):
		return fmt.Sprintf("open (%d)", value)
	default:
		return fmt.Sprintf("closed (%d)", value)
	}
}

func millisLabel(value int64) string {
	if value == domain.NoReading {
		return "never"
	}
	return time.UnixMilli(value).Format(time.RFC3339)
}
