package lambdautils

// Lambda gives us raw JSON and no type information, so we peek at it first.
// https://stackoverflow.com/a/52572943

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// anything that is not an EventBridge/CloudWatch scheduled event, e.g.
// "$ aws lambda invoke --payload '{}'"
type ManualInvocation struct {
	Action string `json:"action,omitempty"`
}

type multiEventTypeHandlerFn func(ctx context.Context, polymorphicEvent interface{}) ([]byte, error)

type multiEventTypeHandler struct {
	fn multiEventTypeHandlerFn
}

func NewMultiEventTypeHandler(fn multiEventTypeHandlerFn) lambda.Handler {
	return &multiEventTypeHandler{fn}
}

func (m *multiEventTypeHandler) Invoke(ctx context.Context, reqRaw []byte) ([]byte, error) {
	polymorphicEvent, err := IdentifyAndUnmarshal(reqRaw)
	if err != nil {
		return nil, err
	}

	return m.fn(ctx, polymorphicEvent)
}

// we introduce just enough fields to determine what type of trigger this is, so we can
// deserialize JSON with proper type
type eventEnvelope struct {
	Source     string `json:"source"`      // "aws.events"
	DetailType string `json:"detail-type"` // CloudWatchEvent
}

// triggers we need to handle:
// - CloudWatch scheduled event
// - manual invocation
func (e *eventEnvelope) Identify() interface{} {
	if e.Source == "aws.events" && e.DetailType == "Scheduled Event" {
		return &events.CloudWatchEvent{}
	}

	return &ManualInvocation{}
}

func IdentifyAndUnmarshal(reqRaw []byte) (interface{}, error) {
	// "aws lambda invoke" without payload
	if len(reqRaw) == 0 || string(reqRaw) == "null" {
		return &ManualInvocation{}, nil
	}

	envelope := &eventEnvelope{}
	if err := json.Unmarshal(reqRaw, envelope); err != nil {
		return nil, fmt.Errorf("cannot identify type of request: %v", err)
	}

	typeOfRequest := envelope.Identify()

	if err := json.Unmarshal(reqRaw, typeOfRequest); err != nil {
		return nil, fmt.Errorf("request unmarshal: %v", err)
	}

	return typeOfRequest, nil
}
