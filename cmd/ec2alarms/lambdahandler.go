package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/function61/ec2-alarms/pkg/lambdautils"
)

// scheduled rule => weekly summary. manual invoke => provisioning (or the summary, if asked)
func lambdaHandler() {
	lambda.StartHandler(lambdautils.NewMultiEventTypeHandler(handleLambdaEvent))
}

func handleLambdaEvent(ctx context.Context, polymorphicEvent interface{}) ([]byte, error) {
	switch event := polymorphicEvent.(type) {
	case *events.CloudWatchEvent:
		return nil, sendWeeklySummary(ctx, event.Time)
	case *lambdautils.ManualInvocation:
		switch event.Action {
		case "", "provision":
			return nil, provision(ctx)
		case "summary":
			return nil, sendWeeklySummary(ctx, time.Now())
		default:
			return nil, fmt.Errorf("unsupported action: %s", event.Action)
		}
	default:
		return nil, fmt.Errorf("unsupported event type: %T", polymorphicEvent)
	}
}
