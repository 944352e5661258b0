package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	"github.com/couchcryptid/storm-safety-advisor/internal/session"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var city, state string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Assess a city and state once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, s *session.Session) session.Result {
				return s.CheckManual(ctx, city, state)
			})
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city name")
	cmd.Flags().StringVar(&state, "state", "", "state name or abbreviation")
	return cmd
}

func newLocateCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Assess a coordinate once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, s *session.Session) session.Result {
				return s.CheckGeolocation(ctx, domain.FixedLocator{Lat: lat, Lon: lon})
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

type checkOutput struct {
	Outcome    session.Outcome          `json:"outcome"`
	Message    string                   `json:"message,omitempty"`
	Assessment *domain.SafetyAssessment `json:"assessment,omitempty"`
	Escape     *domain.Route            `json:"escape,omitempty"`
}

// runOnce wires a session, runs a single check against it, and prints the
// outcome as JSON. A failed check is reported through the returned error.
func runOnce(ctx context.Context, out io.Writer, check func(context.Context, *session.Session) session.Result) error {
	cfg, logger, metrics, err := bootstrap(true)
	if err != nil {
		return err
	}
	a, err := newAdvisor(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	res := check(ctx, a.session)
	o := checkOutput{Outcome: res.Outcome, Message: res.Message(), Assessment: res.Assessment}
	if route, err := a.session.Escape(); err == nil {
		o.Escape = &route
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if res.Outcome == session.OutcomeFailed {
		return errors.New(o.Message)
	}
	return nil
}
