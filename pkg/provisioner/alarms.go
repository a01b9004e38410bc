package provisioner

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/function61/ec2-alarms/pkg/alarmconfig"
)

const (
	Namespace     = "AWS/EC2"
	DimensionName = "InstanceId"
)

// Alarm is what we want CloudWatch to have. we don't store these anywhere, CloudWatch owns them.
type Alarm struct {
	Name               string  `json:"name"`
	InstanceId         string  `json:"instance_id"`
	MetricName         string  `json:"metric_name"`
	Statistic          string  `json:"statistic"`
	Period             int64   `json:"period"`
	EvaluationPeriods  int64   `json:"evaluation_periods"`
	Threshold          float64 `json:"threshold"`
	ComparisonOperator string  `json:"comparison_operator"`
}

// same inputs always give the same name, so re-runs update the alarm instead of
// creating a new one
func AlarmName(instanceId string, metricName string) string {
	return fmt.Sprintf("%s_%s_Alarm", instanceId, metricName)
}

// one alarm per (instance, metric). instances in config order, metrics sorted by name.
func Alarms(conf *alarmconfig.Config) []Alarm {
	alarms := []Alarm{}

	for _, instanceId := range conf.Instances {
		for _, metricName := range conf.MetricNames() {
			metric := conf.Metrics[metricName]

			alarms = append(alarms, Alarm{
				Name:               AlarmName(instanceId, metricName),
				InstanceId:         instanceId,
				MetricName:         metricName,
				Statistic:          metric.StatisticOrDefault(),
				Period:             metric.PeriodOrDefault(),
				EvaluationPeriods:  metric.EvaluationPeriodsOrDefault(),
				Threshold:          *metric.Threshold,
				ComparisonOperator: metric.ComparisonOperator,
			})
		}
	}

	return alarms
}

func (a Alarm) putMetricAlarmInput(topicArn string) *cloudwatch.PutMetricAlarmInput {
	return &cloudwatch.PutMetricAlarmInput{
		AlarmName: aws.String(a.Name),
		AlarmDescription: aws.String(fmt.Sprintf(
			"%s %s %g on %s (managed by ec2-alarms)",
			a.MetricName,
			a.ComparisonOperator,
			a.Threshold,
			a.InstanceId)),
		Namespace:          aws.String(Namespace),
		MetricName:         aws.String(a.MetricName),
		Statistic:          aws.String(a.Statistic),
		Period:             aws.Int64(a.Period),
		EvaluationPeriods:  aws.Int64(a.EvaluationPeriods),
		Threshold:          aws.Float64(a.Threshold),
		ComparisonOperator: aws.String(a.ComparisonOperator),
		AlarmActions:       []*string{aws.String(topicArn)},
		Dimensions: []*cloudwatch.Dimension{
			{
				Name:  aws.String(DimensionName),
				Value: aws.String(a.InstanceId),
			},
		},
	}
}
