package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/contact"
)

type sendTestFlags struct {
	name    string
	phone   string
	email   string
	message string
}

func newSendTestCommand(rt *runtimeState) *cobra.Command {
	var f sendTestFlags

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Submit one contact request through the configured SMTP relay",
		Long: "Builds a contact submission from the flags, runs it through the same handler " +
			"the HTTP endpoint uses and prints the JSON response. Exits non-zero unless the " +
			"notification was delivered.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := json.Marshal(map[string]string{
				"name":    f.name,
				"phone":   f.phone,
				"email":   f.email,
				"message": f.message,
			})
			if err != nil {
				return fmt.Errorf("failed to encode submission: %w", err)
			}

			resp := rt.contactHandler().Handle(cmd.Context(), contact.Request{
				Method:  http.MethodPost,
				Body:    string(body),
				Headers: map[string]string{"content-type": "application/json"},
			})
			_, _ = fmt.Fprintln(rt.writer, resp.Body)

			if resp.StatusCode != http.StatusOK {
				return &ExitError{Code: 2, Err: fmt.Errorf("contact request failed with status %d", resp.StatusCode)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "Тестовая заявка", "Submitter name")
	cmd.Flags().StringVar(&f.phone, "phone", "+70000000000", "Submitter phone")
	cmd.Flags().StringVar(&f.email, "email", "", "Submitter email (optional)")
	cmd.Flags().StringVar(&f.message, "message", "Проверка отправки заявок с сайта", "Message text")

	return cmd
}
