package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"symptomwise-backend/config"
	"symptomwise-backend/database"
	"symptomwise-backend/models"
	"symptomwise-backend/services"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewChatCommand() *cobra.Command {
	var channel, identity string
	var showPayload bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the triage bot from the terminal",
		Long: "Runs a console conversation against the configured completion backend, " +
			"directory and session store. WhatsApp replies are printed as they would be sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := models.MessageChannel(channel)
			if ch != models.ChannelWeb && ch != models.ChannelWhatsApp {
				return errors.Errorf("unknown channel %q", channel)
			}

			if err := config.Load(); err != nil {
				return errors.Wrap(err, "load configuration")
			}
			cfg := config.Get()
			if err := database.Connect(cfg); err != nil {
				return errors.Wrap(err, "connect to database")
			}
			defer database.Disconnect()

			chatbot, err := buildChatbot(cfg, zap.NewNop(), nil)
			if err != nil {
				return err
			}

			if identity == "" {
				identity = uuid.NewString()
			}
			if ch == models.ChannelWhatsApp {
				identity = services.WhatsAppIdentity(identity)
			} else {
				identity = services.WebIdentity("", identity)
			}

			return runChat(cmd, chatbot, ch, identity, showPayload)
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", string(models.ChannelWeb), "Channel rules to apply (web or whatsapp)")
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "Session id or phone number to continue a conversation")
	cmd.Flags().BoolVar(&showPayload, "json", false, "Print the structured reply after each web turn")

	return cmd
}

func runChat(cmd *cobra.Command, chatbot *services.ChatbotService, ch models.MessageChannel, identity string, showPayload bool) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Chatting as %s. Type 'hi' to begin, Ctrl-D to quit.\n", identity)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		in := services.MessageInput{Identity: identity, Channel: ch, Text: text}
		if ch == models.ChannelWeb {
			in.OnToken = func(token string) { _, _ = fmt.Fprint(out, token) }
		}

		resp, err := chatbot.ProcessMessage(cmd.Context(), in)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		if ch == models.ChannelWhatsApp {
			_, _ = fmt.Fprintln(out, services.RenderWhatsApp(resp))
			continue
		}
		printWebReply(out, resp, showPayload)
	}
}

func printWebReply(out io.Writer, resp *models.TriageResponse, showPayload bool) {
	rest := resp.Message
	if resp.Streamed {
		rest = strings.TrimPrefix(resp.Message, resp.Generated)
	}
	_, _ = fmt.Fprintln(out, rest)

	if rec := resp.Recommendations; !rec.Empty() {
		for _, d := range rec.Doctors {
			_, _ = fmt.Fprintf(out, "  Dr. %s (%s), %s\n", d.Name, d.Specialty, d.Hospital)
		}
		for _, h := range rec.Hospitals {
			_, _ = fmt.Fprintf(out, "  %s, %s\n", h.Name, h.City)
		}
	}

	if showPayload {
		payload, err := json.MarshalIndent(resp, "", "  ")
		if err == nil {
			_, _ = fmt.Fprintln(out, string(payload))
		}
	}
}
