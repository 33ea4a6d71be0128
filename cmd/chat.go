package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/tablemate/internal/config"
	"github.com/example/tablemate/internal/conversation"
	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/logging"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/waitlist"
)

func newChatCmd() *cobra.Command {
	var restaurantID, logLevel string

	c := &cobra.Command{
		Use:   "chat",
		Short: "Chat with TableMate in the terminal against the in-memory catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log, err := logging.New(logLevel, "console")
			if err != nil {
				return err
			}
			dir, err := restaurant.Seed(waitlist.Policy(cfg.Waitlist), cfg.MaxPartySize,
				restaurant.WithLogger(log), restaurant.WithClock(clockIn(cfg.Location)))
			if err != nil {
				return err
			}
			rs, err := dir.Get(restaurantID)
			if err != nil {
				var ids []string
				for _, r := range dir.All() {
					ids = append(ids, r.ID())
				}
				return fmt.Errorf("%w (choose one of %s)", err, strings.Join(ids, ", "))
			}
			e := conversation.New(dir, conversation.WithLogger(log))
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), e, rs.ID())
		},
	}

	c.Flags().StringVar(&restaurantID, "restaurant", restaurant.MaisonDoree, "restaurant id")
	c.Flags().StringVar(&logLevel, "log-level", "warn", "log level (logs go to stderr)")
	return c
}

// runChat reads one guest message per line until EOF or "quit". A bare number picks the
// matching option from the previous reply.
func runChat(ctx context.Context, in io.Reader, out io.Writer, e *conversation.Engine, restaurantID string) error {
	sess := conversation.NewSession(restaurantID)
	turn := func(msg string) (conversation.Response, error) {
		resp, next, err := e.Handle(ctx, sess, conversation.Turn{RestaurantID: restaurantID, Message: msg})
		if err != nil {
			return resp, err
		}
		sess = next
		printResponse(out, resp)
		return resp, nil
	}

	last, err := turn("hello")
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for sc.Scan() {
		msg := strings.TrimSpace(sc.Text())
		switch strings.ToLower(msg) {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "quit", "exit":
			return nil
		}
		if n, err := strconv.Atoi(msg); err == nil && n >= 1 && n <= len(last.Options) {
			msg = last.Options[n-1]
		}
		if last, err = turn(msg); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
	}
	return sc.Err()
}

func printResponse(out io.Writer, resp conversation.Response) {
	fmt.Fprintln(out, resp.Message)
	if s := resp.Summary; s != nil {
		fmt.Fprintf(out, "  %s, party of %d\n  %s at %s\n", s.Name, s.PartySize, s.Date, s.Time)
		if s.SpecialRequest != "" {
			fmt.Fprintf(out, "  Request: %s\n", s.SpecialRequest)
		}
		if len(s.Dietary) > 0 {
			fmt.Fprintf(out, "  Dietary: %s\n", dietary.JoinLabels(s.Dietary))
		}
	}
	for _, it := range resp.Menu {
		fmt.Fprintf(out, "  - %s ($%d) %s\n", it.Name, it.Price, it.Description)
	}
	for _, r := range resp.Reservations {
		fmt.Fprintf(out, "  - %s: %s, party of %d, %s %s\n",
			r.Code, r.GuestName, r.PartySize, r.Date.Format("Mon, Jan 2"), r.Time)
	}
	if resp.Notification != "" {
		fmt.Fprintf(out, "  [text message] %s\n", resp.Notification)
	}
	for i, o := range resp.Options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, o)
	}
}
