package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/garyjia/broker-workflow/pkg/utils"
)

func notifyCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "notify",
		Short: "Render notification templates",
	}
	c.AddCommand(notifyRenderCmd(opts), notifyEventsCmd(opts))
	return c
}

func notifyRenderCmd(opts *options) *cobra.Command {
	var (
		dataFile   string
		sets       []string
		recipients []string
	)

	c := &cobra.Command{
		Use:   "render EVENT",
		Short: "Render a notification template without sending it",
		Example: `  brokerctl notify render claim_registered --set claimNumber=CLM-2025-000042 --set clientEmail=ada@example.com
  brokerctl notify render approval_required --data-file payload.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evt := notification.Event(args[0])
			if !evt.IsKnown() {
				// Unknown events render with the approval template
				opts.logger.Warn("Unknown notification event, using approval_required",
					zap.String("event", args[0]))
			}

			data, err := loadData(dataFile)
			if err != nil {
				return err
			}
			for _, kv := range sets {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid --set %q, want key=value", kv)
				}
				data[key] = parseValue(value)
			}
			if len(recipients) > 0 {
				data["recipients"] = recipients
			}

			msg := notification.Generate(evt, data)
			if msg.Type == notification.ChannelSMS {
				for _, r := range msg.Recipients {
					if err := utils.ValidatePhone(r); err != nil {
						opts.logger.Warn("SMS recipient is not a phone number", zap.String("recipient", r))
					}
				}
			}
			return render(cmd.OutOrStdout(), opts.output, msg, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Event:      %s\nChannel:    %s\nPriority:   %s\nRecipients: %s\nSubject:    %s\n\n%s\n",
					msg.Event, msg.Type, msg.Priority, strings.Join(msg.Recipients, ", "), msg.Subject, msg.Template)
				return err
			})
		},
	}

	c.Flags().StringVarP(&dataFile, "data-file", "f", "", "YAML or JSON file with template fields")
	c.Flags().StringArrayVar(&sets, "set", nil, "template field as key=value, repeatable")
	c.Flags().StringSliceVar(&recipients, "recipient", nil, "extra recipient, repeatable")
	return c
}

func notifyEventsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the notification events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			events := notification.Events()
			return render(cmd.OutOrStdout(), opts.output, events, func(w io.Writer) error {
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					msg := notification.Generate(e, nil)
					rows = append(rows, []string{e.String(), string(msg.Type), string(msg.Priority)})
				}
				return table(w, []string{"EVENT", "CHANNEL", "PRIORITY"}, rows)
			})
		},
	}
}

// loadData reads template fields from a YAML or JSON document
func loadData(path string) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	if path == "" {
		return data, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	if data == nil {
		data = make(map[string]interface{})
	}
	return data, nil
}

// parseValue keeps numbers numeric so amounts render with separators.
// Digit strings with a leading zero, such as phone numbers, stay text.
func parseValue(s string) interface{} {
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
