package main

import (
	"fmt"

	v1 "github.com/123qassim/mumbso/internal/api/v1"
	"github.com/123qassim/mumbso/internal/poller"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) payCmd() *cobra.Command {
	var (
		description string
		reference   string
		noWait      bool
	)

	cmd := &cobra.Command{
		Use:   "pay <phone> <amount>",
		Short: "Prompt a phone for payment and wait for the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount %q is not a number", args[1])
			}

			ctx := cmd.Context()
			client := a.client()

			resp, err := client.Initiate(ctx, v1.InitiatePaymentRequest{
				PhoneNumber:      args[0],
				Amount:           amount,
				Description:      description,
				AccountReference: reference,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Prompt sent to %s for KES %d (checkout %s)\n",
				service.FormatPhoneNumber(resp.PhoneNumber, a.cfg.Payment.CountryCode), resp.Amount, resp.CheckoutRequestID)
			if resp.CustomerMessage != "" {
				fmt.Fprintln(out, resp.CustomerMessage)
			}

			if noWait {
				return nil
			}

			p := poller.NewPoller(client, a.cfg.Poller, nil, a.logger)
			session := p.Start(ctx, resp.CheckoutRequestID, poller.WithOnUpdate(
				func(attempt int, status service.PaymentStatusResponse) {
					a.logger.Debug("Polled payment status",
						zap.Int("attempt", attempt),
						zap.String("status", string(status.Status)))
				}))

			result := session.Wait()
			return report(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description shown to the payer")
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "Account reference (defaults to a generated one)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the prompt is sent")

	return cmd
}

func report(cmd *cobra.Command, result poller.Result) error {
	out := cmd.OutOrStdout()

	switch result.Outcome {
	case poller.OutcomeSettled:
		fmt.Fprintf(out, "Payment %s\n", result.Last.Status)
		if result.Last.TransactionID != nil {
			fmt.Fprintf(out, "Transaction: %s\n", *result.Last.TransactionID)
		}
		if result.Last.ResultDesc != nil && *result.Last.ResultDesc != "" {
			fmt.Fprintf(out, "Detail: %s\n", *result.Last.ResultDesc)
		}
		return nil
	case poller.OutcomeExhausted:
		fmt.Fprintf(out, "No result after %d checks. Run `mpesactl status %s` later.\n",
			result.Attempts, result.CheckoutRequestID)
		return nil
	default:
		fmt.Fprintf(out, "Stopped waiting. Run `mpesactl status %s` to check again.\n", result.CheckoutRequestID)
		return nil
	}
}
