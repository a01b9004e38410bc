package provisioner

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/function61/gokit/stringutils"
)

const errorNotificationSubject = "Error Notification: EC2 Monitoring"

// NotifyStakeholders tells error_topic_arn subscribers that task failed. best effort: a failure
// here is only logged, caller still has the original error to return.
func (p *Provisioner) NotifyStakeholders(ctx context.Context, task string, failure error) {
	if p.conf.ErrorTopicArn == "" {
		return
	}

	if err := PublishToTopic(
		ctx,
		p.sns,
		p.conf.ErrorTopicArn,
		errorNotificationSubject,
		task+" failed: "+failure.Error(),
	); err != nil {
		p.logl.Error.Printf("NotifyStakeholders: %v", err)
		return
	}

	p.logl.Info.Printf("%s error notification sent to stakeholders", task)
}

// PublishToTopic sends a message whose email and SMS renditions are sized for their transport
func PublishToTopic(
	ctx context.Context,
	snsSvc snsiface.SNSAPI,
	topicArn string,
	subject string,
	messageText string,
) error {
	messagePerProtocol := struct {
		Default string `json:"default"` // email etc.
		Sms     string `json:"sms"`
	}{
		Default: stringutils.Truncate(messageText, 64*1024),
		Sms:     stringutils.Truncate(subject+": "+messageText, 160-7), // -7 for "ALERT >" prefix in SMS messages
	}

	messagePerProtocolJson, err := json.Marshal(&messagePerProtocol)
	if err != nil {
		return err
	}

	_, err = snsSvc.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn:         aws.String(topicArn),
		Subject:          aws.String(subject),
		Message:          aws.String(string(messagePerProtocolJson)),
		MessageStructure: aws.String("json"),
	})
	return err
}
