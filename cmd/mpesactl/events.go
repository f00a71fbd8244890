package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/123qassim/mumbso/internal/events"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/123qassim/mumbso/pkg/mq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) eventsCmd() *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print payment settlement events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.cfg.RabbitMQ

			rabbit, err := mq.NewConnection(settings.Config, a.logger)
			if err != nil {
				return err
			}
			defer rabbit.Close()

			err = rabbit.DeclareTopology(mq.Topology{
				Exchange: settings.Exchange,
				Bindings: []mq.Binding{{Queue: settings.Queue, RoutingKey: settings.RoutingKey}},
			})
			if err != nil {
				return err
			}

			consumer, err := rabbit.CreateConsumer()
			if err != nil {
				return err
			}
			defer consumer.Close()

			out := cmd.OutOrStdout()
			handler := func(ctx context.Context, body []byte) error {
				var event events.PaymentSettled
				if err := json.Unmarshal(body, &event); err != nil {
					a.logger.Warn("Dropping unreadable event", zap.Error(err), zap.ByteString("body", body))
					return err
				}

				fmt.Fprintf(out, "%s  %-9s  %s  KES %d  %s\n",
					event.SettledAt.Format("2006-01-02 15:04:05"), event.Status,
					service.FormatPhoneNumber(event.PhoneNumber, a.cfg.Payment.CountryCode),
					event.Amount, event.CheckoutRequestID)
				return nil
			}

			a.logger.Info("Waiting for settlement events", zap.String("queue", settings.Queue))

			err = consumer.Consume(cmd.Context(), prefetch, settings.Queue, handler)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&prefetch, "prefetch", 10, "Deliveries fetched ahead of processing")

	return cmd
}
