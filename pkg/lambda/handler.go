// Package lambda exposes the contact handler as an AWS Lambda function behind
// an API Gateway proxy integration.
package lambda

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/apiresponses"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/contact"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/system"
)

// ContactHandler answers platform-neutral contact requests.
type ContactHandler interface {
	Handle(ctx context.Context, req contact.Request) apiresponses.Response
}

type Handler struct {
	contact ContactHandler
	log     *zap.SugaredLogger
}

func NewHandler(h ContactHandler, log *zap.SugaredLogger) *Handler {
	return &Handler{contact: h, log: log.Named("lambda")}
}

// Handle converts the proxy event, runs the contact handler and converts the
// result back. The returned error is always nil so API Gateway relays the
// response instead of reporting a function failure.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqLog := h.log
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		reqLog = reqLog.With("requestId", lc.AwsRequestID)
	}
	ctx = system.WithLogger(ctx, reqLog)

	resp := h.contact.Handle(ctx, toRequest(event))
	return events.APIGatewayProxyResponse{
		StatusCode:      resp.StatusCode,
		Headers:         resp.Headers,
		Body:            resp.Body,
		IsBase64Encoded: resp.IsBase64Encoded,
	}, nil
}

// Start hands the handler to the Lambda runtime. It does not return.
func Start(h *Handler) {
	awslambda.Start(h.Handle)
}

func toRequest(event events.APIGatewayProxyRequest) contact.Request {
	method := event.HTTPMethod
	if method == "" {
		method = event.RequestContext.HTTPMethod
	}

	headers := make(map[string]string, len(event.Headers)+len(event.MultiValueHeaders))
	for k, v := range event.MultiValueHeaders {
		headers[strings.ToLower(k)] = strings.Join(v, ",")
	}
	for k, v := range event.Headers {
		headers[strings.ToLower(k)] = v
	}

	return contact.Request{
		Method:          method,
		Body:            event.Body,
		Headers:         headers,
		IsBase64Encoded: event.IsBase64Encoded,
	}
}
