package cli

import (
	"github.com/spf13/cobra"

	lambdaadapter "github.com/pr-poehali-dev/cad-engineer-website/pkg/lambda"
)

func newLambdaCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function behind API Gateway",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			Print(rt.sugar(), rt.cfg)
			rt.start(lambdaadapter.NewHandler(rt.contactHandler(), rt.sugar()))
			return nil
		},
	}
}
