// Loading and validation of the provisioning configuration file
package alarmconfig

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"regexp"
	"sort"

	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/function61/gokit/jsonfile"
)

const (
	DefaultPath = "configurations/config.json"

	DefaultStatistic         = cloudwatch.StatisticAverage
	DefaultPeriodSeconds     = 60
	DefaultEvaluationPeriods = 1
)

var (
	accountIdRe = regexp.MustCompile(`^[0-9]{12}$`)
	regionRe    = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-[0-9]+$`)
	topicNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)
)

var comparisonOperators = []string{
	cloudwatch.ComparisonOperatorGreaterThanOrEqualToThreshold,
	cloudwatch.ComparisonOperatorGreaterThanThreshold,
	cloudwatch.ComparisonOperatorLessThanThreshold,
	cloudwatch.ComparisonOperatorLessThanOrEqualToThreshold,
}

var statistics = []string{
	cloudwatch.StatisticSampleCount,
	cloudwatch.StatisticAverage,
	cloudwatch.StatisticSum,
	cloudwatch.StatisticMinimum,
	cloudwatch.StatisticMaximum,
}

// Read loads config from path and validates it. no AWS call should be made if this fails.
func Read(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %v", err)
	}
	defer file.Close()

	return Parse(file)
}

func Parse(content io.Reader) (*Config, error) {
	conf := &Config{}
	if err := jsonfile.Unmarshal(content, conf, true); err != nil {
		return nil, fmt.Errorf("config: %v", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config: %v", err)
	}

	return conf, nil
}

func (c *Config) Validate() error {
	if len(c.Instances) == 0 {
		return errors.New("instances: must have at least one instance id")
	}

	seenInstances := map[string]bool{}
	for _, instanceId := range c.Instances {
		if instanceId == "" {
			return errors.New("instances: empty instance id")
		}

		if seenInstances[instanceId] {
			return fmt.Errorf("instances: duplicate instance id %s", instanceId)
		}
		seenInstances[instanceId] = true
	}

	if len(c.Metrics) == 0 {
		return errors.New("metrics: must have at least one metric")
	}

	for _, name := range c.MetricNames() {
		if err := c.Metrics[name].validate(); err != nil {
			return fmt.Errorf("metrics.%s: %v", name, err)
		}
	}

	if !topicNameRe.MatchString(c.SnsTopicName) {
		return fmt.Errorf("sns_topic_name: invalid topic name '%s'", c.SnsTopicName)
	}

	if err := validateEmail(c.Email); err != nil {
		return fmt.Errorf("email: %v", err)
	}

	if !accountIdRe.MatchString(c.AccountId) {
		return fmt.Errorf("account_id: expecting 12 digits; got '%s'", c.AccountId)
	}

	if !regionRe.MatchString(c.Region) {
		return fmt.Errorf("region: invalid region '%s'", c.Region)
	}

	if c.ErrorTopicArn != "" {
		topicArn, err := arn.Parse(c.ErrorTopicArn)
		if err != nil {
			return fmt.Errorf("error_topic_arn: %v", err)
		}

		if topicArn.Service != "sns" {
			return fmt.Errorf("error_topic_arn: not a SNS topic: %s", c.ErrorTopicArn)
		}

		// notifications are published with a client of the configured region
		if topicArn.Region != c.Region {
			return fmt.Errorf(
				"error_topic_arn: topic is in region %s but region is %s",
				topicArn.Region,
				c.Region)
		}
	}

	return nil
}

// metric names in stable order (maps don't have one) so provisioning calls are reproducible
func (c *Config) MetricNames() []string {
	names := []string{}
	for name := range c.Metrics {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (m Metric) validate() error {
	if m.Threshold == nil {
		return errors.New("threshold: missing")
	}

	if !containsString(comparisonOperators, m.ComparisonOperator) {
		return fmt.Errorf("comparison_operator: unsupported '%s'", m.ComparisonOperator)
	}

	if m.Statistic != "" && !containsString(statistics, m.Statistic) {
		return fmt.Errorf("statistic: unsupported '%s'", m.Statistic)
	}

	// CloudWatch accepts 10, 30 or any multiple of 60
	if period := m.PeriodOrDefault(); !(period == 10 || period == 30 || (period > 0 && period%60 == 0)) {
		return fmt.Errorf("period: must be 10, 30 or a multiple of 60; got %d", period)
	}

	if m.EvaluationPeriods < 0 {
		return fmt.Errorf("evaluation_periods: must be positive; got %d", m.EvaluationPeriods)
	}

	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("missing")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}

	// "Name <addr>" parses fine but SNS wants a bare address
	if addr.Address != email {
		return fmt.Errorf("expecting bare address, got '%s'", email)
	}

	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}

	return false
}
