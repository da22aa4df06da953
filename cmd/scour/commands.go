package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scour/capability"
	"scour/core"
)

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <capability> <operation> [args...]",
		Short: "Invoke a named operation across matching backends",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := capability.BuildOp(args[0], args[1], args[2:])
			if err != nil {
				return err
			}
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			return consume(reg.Dispatch(op, args[0], backendNames...))
		},
	}
}

func weatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather <city>",
		Short: "Current conditions and forecast from every weather backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			city := args[0]
			if err := consume(reg.Dispatch(capability.CurrentWeatherOp(city), capability.Weather, backendNames...)); err != nil {
				return err
			}
			return consume(reg.Dispatch(capability.ForecastOp(city), capability.Weather, backendNames...))
		},
	}
}

func boardsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "boards <query>",
		Short: "Search discussion threads across every boards backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			op := capability.SearchThreadsOp(args[0], limit)
			return consume(reg.Dispatch(op, capability.Boards, backendNames...))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum threads per backend")
	return cmd
}

func messageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "message <to> <subject> <body...>",
		Short: "Send a message through every messaging backend",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			msg := &capability.Message{
				To:      args[0],
				Subject: args[1],
				Body:    strings.Join(args[2:], " "),
			}
			// Sending produces no results, so blocking wait is enough.
			d := reg.Dispatch(capability.SendMessageOp(msg), capability.Messaging, backendNames...)
			if err := d.Wait(); err != nil {
				return reportCallError(err)
			}
			fmt.Println("message sent")
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <cronspec> <city>",
		Short: "Periodically fetch current conditions on a cron schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			spec, city := args[0], args[1]

			sched := core.NewScheduler()
			if _, err := sched.Schedule(spec, func() {
				d := reg.Dispatch(capability.CurrentWeatherOp(city), capability.Weather, backendNames...)
				d.Callback(
					func(r core.Result) { fmt.Println(formatResult(r)) },
					func(rec core.ErrorRecord) {
						fmt.Fprintf(os.Stderr, "%s: %v\n", rec.Backend, rec.Err)
					},
					nil,
				)
			}); err != nil {
				return err
			}
			sched.Start()
			fmt.Printf("watching %q (%s), ctrl-c to stop\n", city, spec)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			sched.Stop()
			return nil
		},
	}
}

// consume drains a dispatch in pull style, printing each result as it
// arrives, then reports per-backend failures.
func consume(d *core.Dispatch) error {
	for d.Next() {
		fmt.Println(formatResult(d.Result()))
	}
	if err := d.Err(); err != nil {
		return reportCallError(err)
	}
	return nil
}

// reportCallError prints one diagnostic per failed backend so single-source
// failures stay inspectable, then returns a short summary error.
func reportCallError(err error) error {
	var ce *core.CallError
	if !errors.As(err, &ce) {
		return err
	}
	for _, rec := range ce.Records() {
		fmt.Fprintf(os.Stderr, "%s (module %s): %v\n", rec.Backend, rec.Backend.Module().Name, rec.Err)
	}
	return fmt.Errorf("%d backend(s) failed", ce.Len())
}

func formatResult(r core.Result) string {
	switch v := r.Value.(type) {
	case *capability.Current:
		return fmt.Sprintf("[%s] %s: %.1f°, %s", r.Backend, v.City, v.Temperature, v.Description)
	case *capability.Forecast:
		return fmt.Sprintf("[%s] %s %s: %.0f°/%.0f°, %s",
			r.Backend, v.City, v.Date.Format("Mon Jan 2"), v.Low, v.High, v.Description)
	case *capability.Thread:
		return fmt.Sprintf("[%s] (%d pts, %d comments) %s\n    %s",
			r.Backend, v.Score, v.Comments, v.Title, v.URL)
	default:
		return fmt.Sprintf("[%s] %+v", r.Backend, v)
	}
}
