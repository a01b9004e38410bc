package provisioner

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// behaves like CloudWatch for PutMetricAlarm: alarms keyed by name, so puts are upserts
type testCloudWatch struct {
	cloudwatchiface.CloudWatchAPI // panics if we call anything not implemented here

	alarms     map[string]*cloudwatch.PutMetricAlarmInput
	calls      []string // alarm names, in call order
	failOnCall int      // 1-based, 0 = never fail
}

func newTestCloudWatch() *testCloudWatch {
	return &testCloudWatch{
		alarms: map[string]*cloudwatch.PutMetricAlarmInput{},
	}
}

func (c *testCloudWatch) PutMetricAlarmWithContext(
	_ aws.Context,
	input *cloudwatch.PutMetricAlarmInput,
	_ ...request.Option,
) (*cloudwatch.PutMetricAlarmOutput, error) {
	c.calls = append(c.calls, *input.AlarmName)

	if len(c.calls) == c.failOnCall {
		return nil, fmt.Errorf("InvalidParameterValue: bad instance %s", *input.Dimensions[0].Value)
	}

	c.alarms[*input.AlarmName] = input

	return &cloudwatch.PutMetricAlarmOutput{}, nil
}

type testSns struct {
	snsiface.SNSAPI

	account          string
	region           string
	topics           map[string]string              // name => arn
	subscriptions    map[string][]*sns.Subscription // topic arn => subscriptions
	subscribeCalls   int
	published        []*sns.PublishInput
	createTopicError error
	publishError     error
}

func newTestSns() *testSns {
	return &testSns{
		account:       "123456789012",
		region:        "eu-west-1",
		topics:        map[string]string{},
		subscriptions: map[string][]*sns.Subscription{},
	}
}

func (s *testSns) CreateTopicWithContext(
	_ aws.Context,
	input *sns.CreateTopicInput,
	_ ...request.Option,
) (*sns.CreateTopicOutput, error) {
	if s.createTopicError != nil {
		return nil, s.createTopicError
	}

	topicArn, exists := s.topics[*input.Name]
	if !exists {
		topicArn = fmt.Sprintf("arn:aws:sns:%s:%s:%s", s.region, s.account, *input.Name)
		s.topics[*input.Name] = topicArn
	}

	return &sns.CreateTopicOutput{TopicArn: aws.String(topicArn)}, nil
}

// serves one subscription per page to exercise paging
func (s *testSns) ListSubscriptionsByTopicPagesWithContext(
	_ aws.Context,
	input *sns.ListSubscriptionsByTopicInput,
	fn func(*sns.ListSubscriptionsByTopicOutput, bool) bool,
	_ ...request.Option,
) error {
	subs := s.subscriptions[*input.TopicArn]

	if len(subs) == 0 {
		fn(&sns.ListSubscriptionsByTopicOutput{}, true)
		return nil
	}

	for i, sub := range subs {
		lastPage := i == len(subs)-1

		if !fn(&sns.ListSubscriptionsByTopicOutput{Subscriptions: []*sns.Subscription{sub}}, lastPage) {
			break
		}
	}

	return nil
}

func (s *testSns) SubscribeWithContext(
	_ aws.Context,
	input *sns.SubscribeInput,
	_ ...request.Option,
) (*sns.SubscribeOutput, error) {
	s.subscribeCalls++

	s.subscriptions[*input.TopicArn] = append(s.subscriptions[*input.TopicArn], &sns.Subscription{
		TopicArn:        input.TopicArn,
		Protocol:        input.Protocol,
		Endpoint:        input.Endpoint,
		SubscriptionArn: aws.String("PendingConfirmation"),
	})

	return &sns.SubscribeOutput{SubscriptionArn: aws.String("pending confirmation")}, nil
}

func (s *testSns) PublishWithContext(
	_ aws.Context,
	input *sns.PublishInput,
	_ ...request.Option,
) (*sns.PublishOutput, error) {
	if s.publishError != nil {
		return nil, s.publishError
	}

	s.published = append(s.published, input)

	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

var errAccessDenied = errors.New("AccessDenied: not authorized to perform sns:CreateTopic")

// pairs of (protocol, endpoint)
func subscriptions(protocolsAndEndpoints ...string) []*sns.Subscription {
	subs := []*sns.Subscription{}
	for i := 0; i < len(protocolsAndEndpoints); i += 2 {
		subs = append(subs, &sns.Subscription{
			Protocol:        aws.String(protocolsAndEndpoints[i]),
			Endpoint:        aws.String(protocolsAndEndpoints[i+1]),
			SubscriptionArn: aws.String("PendingConfirmation"),
		})
	}

	return subs
}
