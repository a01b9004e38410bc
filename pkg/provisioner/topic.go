package provisioner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/service/sns"
)

const emailProtocol = "email"

// EnsureTopic creates the topic (CreateTopic is idempotent by name) and subscribes the
// configured email unless it already is subscribed. returns topic ARN.
func (p *Provisioner) EnsureTopic(ctx context.Context) (string, error) {
	created, err := p.sns.CreateTopicWithContext(ctx, &sns.CreateTopicInput{
		Name: aws.String(p.conf.SnsTopicName),
	})
	if err != nil {
		return "", fmt.Errorf("create topic %s: %v", p.conf.SnsTopicName, err)
	}

	topicArn := aws.StringValue(created.TopicArn)

	if err := p.topicInConfiguredAccount(topicArn); err != nil {
		return "", err
	}

	p.logl.Debug.Printf("topic %s", topicArn)

	subscribed, err := p.emailSubscribed(ctx, topicArn, p.conf.Email)
	if err != nil {
		return "", fmt.Errorf("list subscriptions of %s: %v", topicArn, err)
	}

	if subscribed {
		p.logl.Debug.Printf("%s already subscribed to %s", p.conf.Email, topicArn)
		return topicArn, nil
	}

	if _, err := p.sns.SubscribeWithContext(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicArn),
		Protocol: aws.String(emailProtocol),
		Endpoint: aws.String(p.conf.Email),
	}); err != nil {
		return "", fmt.Errorf("subscribe %s to %s: %v", p.conf.Email, topicArn, err)
	}

	// SNS sends a confirmation mail; subscription stays "PendingConfirmation" until clicked
	p.logl.Info.Printf("subscribed %s to %s (pending confirmation)", p.conf.Email, topicArn)

	return topicArn, nil
}

// pending subscriptions are listed too, so a re-run before the confirmation click
// does not send another confirmation mail
func (p *Provisioner) emailSubscribed(ctx context.Context, topicArn string, email string) (bool, error) {
	found := false

	err := p.sns.ListSubscriptionsByTopicPagesWithContext(
		ctx,
		&sns.ListSubscriptionsByTopicInput{
			TopicArn: aws.String(topicArn),
		},
		func(page *sns.ListSubscriptionsByTopicOutput, lastPage bool) bool {
			for _, sub := range page.Subscriptions {
				if aws.StringValue(sub.Protocol) == emailProtocol && strings.EqualFold(aws.StringValue(sub.Endpoint), email) {
					found = true
					return false // stop paging
				}
			}

			return true
		})

	return found, err
}

// credentials for another account would happily create the topic there, and alarms with it.
// catch that before we make any more mess.
func (p *Provisioner) topicInConfiguredAccount(topicArn string) error {
	parsed, err := arn.Parse(topicArn)
	if err != nil {
		return fmt.Errorf("create topic %s: unexpected ARN: %v", p.conf.SnsTopicName, err)
	}

	if parsed.AccountID != p.conf.AccountId {
		return fmt.Errorf(
			"topic %s is in account %s but account_id is %s (wrong credentials?)",
			topicArn,
			parsed.AccountID,
			p.conf.AccountId)
	}

	if parsed.Region != p.conf.Region {
		return fmt.Errorf(
			"topic %s is in region %s but region is %s",
			topicArn,
			parsed.Region,
			p.conf.Region)
	}

	return nil
}
