package alarmconfig

import (
	"fmt"
	"strings"
	"testing"

	"github.com/function61/gokit/assert"
)

const validConfig = `{
  "instances": ["i-123", "i-456"],
  "metrics": {
    "StatusCheckFailed": {"threshold": 0, "comparison_operator": "GreaterThanThreshold"},
    "CPUUtilization": {"threshold": 80, "comparison_operator": "GreaterThanOrEqualToThreshold", "period": 300}
  },
  "sns_topic_name": "ec2-alarms",
  "email": "ops@example.com",
  "account_id": "123456789012",
  "region": "eu-west-1"
}`

func TestParse(t *testing.T) {
	conf, err := Parse(strings.NewReader(validConfig))
	assert.Ok(t, err)

	assert.EqualString(t, strings.Join(conf.Instances, ","), "i-123,i-456")
	assert.EqualString(t, strings.Join(conf.MetricNames(), ","), "CPUUtilization,StatusCheckFailed")

	cpu := conf.Metrics["CPUUtilization"]
	assert.Assert(t, *cpu.Threshold == 80)
	assert.Assert(t, cpu.PeriodOrDefault() == 300)
	assert.Assert(t, cpu.EvaluationPeriodsOrDefault() == 1)
	assert.EqualString(t, cpu.StatisticOrDefault(), "Average")

	// zero is a legit threshold, not "missing"
	assert.Assert(t, *conf.Metrics["StatusCheckFailed"].Threshold == 0)
	assert.Assert(t, conf.Metrics["StatusCheckFailed"].PeriodOrDefault() == 60)
}

func TestParseErrors(t *testing.T) {
	tcs := []struct {
		name    string
		replace [2]string
		expect  string
	}{
		{
			"missing email",
			[2]string{`"email": "ops@example.com",`, ``},
			"config: email: missing",
		},
		{
			"email with display name",
			[2]string{`"ops@example.com"`, `"Ops <ops@example.com>"`},
			"config: email: expecting bare address, got 'Ops <ops@example.com>'",
		},
		{
			"no instances",
			[2]string{`["i-123", "i-456"]`, `[]`},
			"config: instances: must have at least one instance id",
		},
		{
			"duplicate instance",
			[2]string{`["i-123", "i-456"]`, `["i-123", "i-123"]`},
			"config: instances: duplicate instance id i-123",
		},
		{
			"missing threshold",
			[2]string{`"threshold": 80, `, ``},
			"config: metrics.CPUUtilization: threshold: missing",
		},
		{
			"bad operator",
			[2]string{`"GreaterThanOrEqualToThreshold"`, `"Bigger"`},
			"config: metrics.CPUUtilization: comparison_operator: unsupported 'Bigger'",
		},
		{
			"bad period",
			[2]string{`"period": 300`, `"period": 45`},
			"config: metrics.CPUUtilization: period: must be 10, 30 or a multiple of 60; got 45",
		},
		{
			"short account id",
			[2]string{`"123456789012"`, `"1234"`},
			"config: account_id: expecting 12 digits; got '1234'",
		},
		{
			"missing region",
			[2]string{`"region": "eu-west-1"`, `"region": ""`},
			"config: region: invalid region ''",
		},
		{
			"bad topic name",
			[2]string{`"ec2-alarms"`, `"ec2 alarms"`},
			"config: sns_topic_name: invalid topic name 'ec2 alarms'",
		},
		{
			"error topic not SNS",
			[2]string{`"region": "eu-west-1"`, `"region": "eu-west-1", "error_topic_arn": "arn:aws:sqs:eu-west-1:123456789012:errors"`},
			"config: error_topic_arn: not a SNS topic: arn:aws:sqs:eu-west-1:123456789012:errors",
		},
		{
			"error topic in another region",
			[2]string{`"region": "eu-west-1"`, `"region": "eu-west-1", "error_topic_arn": "arn:aws:sns:us-east-1:999999999999:errors"`},
			"config: error_topic_arn: topic is in region us-east-1 but region is eu-west-1",
		},
	}

	for _, tc := range tcs {
		tc := tc // pin
		t.Run(tc.name, func(t *testing.T) {
			content := strings.Replace(validConfig, tc.replace[0], tc.replace[1], 1)
			assert.Assert(t, content != validConfig)

			_, err := Parse(strings.NewReader(content))
			assert.EqualString(t, fmt.Sprintf("%v", err), tc.expect)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader(strings.Replace(validConfig, `"region": "eu-west-1"`, `"region": "eu-west-1", "regoin": "x"`, 1)))
	assert.Assert(t, err != nil)
	assert.Assert(t, strings.Contains(err.Error(), `unknown field "regoin"`))
}

func TestReadFileNotFound(t *testing.T) {
	_, err := Read("/nonexistent/config.json")
	assert.Assert(t, err != nil)
	assert.Assert(t, strings.HasPrefix(err.Error(), "config: open /nonexistent/config.json"))
}
