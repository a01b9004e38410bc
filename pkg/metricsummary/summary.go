// Reads back the metrics our alarms watch: a current snapshot and a weekly summary
package metricsummary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/function61/ec2-alarms/pkg/alarmconfig"
	"github.com/function61/ec2-alarms/pkg/provisioner"
)

const (
	SnapshotWindow = 5 * time.Minute
	WeeklyWindow   = 7 * 24 * time.Hour

	weeklyPeriodSeconds = 3600
	weeklySubject       = "Weekly EC2 Metrics Summary"
)

type Reading struct {
	InstanceId string   `json:"instance_id"`
	MetricName string   `json:"metric_name"`
	Average    *float64 `json:"average"` // nil = no datapoints in window
	Error      string   `json:"error,omitempty"`
}

type Summary struct {
	InstanceId string  `json:"instance_id"`
	MetricName string  `json:"metric_name"`
	Datapoints int     `json:"datapoints"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Average    float64 `json:"average"`
}

// Snapshot gets latest average of each (instance, metric). one failing metric doesn't stop
// the rest, its error is recorded on its reading instead. error is returned only if nothing
// succeeded or ctx got cancelled.
func Snapshot(
	ctx context.Context,
	cw cloudwatchiface.CloudWatchAPI,
	conf *alarmconfig.Config,
	now time.Time,
) ([]Reading, error) {
	readings := []Reading{}
	failed := 0

	for _, instanceId := range conf.Instances {
		for _, metricName := range conf.MetricNames() {
			if err := ctx.Err(); err != nil {
				return readings, err
			}

			reading := Reading{
				InstanceId: instanceId,
				MetricName: metricName,
			}

			datapoints, err := getStatistics(
				ctx,
				cw,
				instanceId,
				metricName,
				now.Add(-SnapshotWindow),
				now,
				alarmconfig.DefaultPeriodSeconds,
				cloudwatch.StatisticAverage)
			if err != nil {
				reading.Error = err.Error()
				failed++
			} else if latest := latestDatapoint(datapoints); latest != nil {
				reading.Average = latest.Average
			}

			readings = append(readings, reading)
		}
	}

	if failed > 0 && failed == len(readings) {
		return readings, fmt.Errorf("all %d readings failed, first: %s", failed, readings[0].Error)
	}

	return readings, nil
}

// Weekly aggregates the past week hourly: high = max of maximums, low = min of minimums,
// average = mean of hourly averages
func Weekly(
	ctx context.Context,
	cw cloudwatchiface.CloudWatchAPI,
	conf *alarmconfig.Config,
	now time.Time,
) ([]Summary, error) {
	summaries := []Summary{}

	for _, instanceId := range conf.Instances {
		for _, metricName := range conf.MetricNames() {
			datapoints, err := getStatistics(
				ctx,
				cw,
				instanceId,
				metricName,
				now.Add(-WeeklyWindow),
				now,
				weeklyPeriodSeconds,
				cloudwatch.StatisticAverage,
				cloudwatch.StatisticMaximum,
				cloudwatch.StatisticMinimum)
			if err != nil {
				return nil, fmt.Errorf("%s on %s: %v", metricName, instanceId, err)
			}

			summaries = append(summaries, summarize(instanceId, metricName, datapoints))
		}
	}

	return summaries, nil
}

func summarize(instanceId string, metricName string, datapoints []*cloudwatch.Datapoint) Summary {
	summary := Summary{
		InstanceId: instanceId,
		MetricName: metricName,
	}

	sum := 0.0

	for _, dp := range datapoints {
		if dp.Average == nil || dp.Maximum == nil || dp.Minimum == nil {
			continue
		}

		if summary.Datapoints == 0 || *dp.Maximum > summary.High {
			summary.High = *dp.Maximum
		}
		if summary.Datapoints == 0 || *dp.Minimum < summary.Low {
			summary.Low = *dp.Minimum
		}

		sum += *dp.Average
		summary.Datapoints++
	}

	if summary.Datapoints > 0 {
		summary.Average = sum / float64(summary.Datapoints)
	}

	return summary
}

func Message(summaries []Summary) string {
	lines := []string{"Weekly Summary:"}

	for _, summary := range summaries {
		lines = append(lines, "", fmt.Sprintf("%s %s:", summary.InstanceId, summary.MetricName))

		if summary.Datapoints == 0 {
			lines = append(lines, "  No data")
			continue
		}

		lines = append(
			lines,
			fmt.Sprintf("  High: %g", summary.High),
			fmt.Sprintf("  Low: %g", summary.Low),
			fmt.Sprintf("  Average: %.2f", summary.Average))
	}

	return strings.Join(lines, "\n")
}

// SendWeekly makes sure the topic exists, then publishes past week's summary to it. failures
// are also reported to stakeholders.
func SendWeekly(
	ctx context.Context,
	prov *provisioner.Provisioner,
	cw cloudwatchiface.CloudWatchAPI,
	snsSvc snsiface.SNSAPI,
	conf *alarmconfig.Config,
	now time.Time,
) ([]Summary, string, error) {
	summaries, topicArn, err := sendWeekly(ctx, prov, cw, snsSvc, conf, now)
	if err != nil {
		prov.NotifyStakeholders(ctx, "Weekly summary", err)

		return nil, "", err
	}

	return summaries, topicArn, nil
}

func sendWeekly(
	ctx context.Context,
	prov *provisioner.Provisioner,
	cw cloudwatchiface.CloudWatchAPI,
	snsSvc snsiface.SNSAPI,
	conf *alarmconfig.Config,
	now time.Time,
) ([]Summary, string, error) {
	// topic might not exist yet if summary is ran before provisioning
	topicArn, err := prov.EnsureTopic(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("ensure topic: %v", err)
	}

	summaries, err := Weekly(ctx, cw, conf, now)
	if err != nil {
		return nil, "", fmt.Errorf("weekly summary: %v", err)
	}

	if err := Publish(ctx, snsSvc, topicArn, summaries); err != nil {
		return nil, "", fmt.Errorf("publish summary: %v", err)
	}

	return summaries, topicArn, nil
}

func Publish(ctx context.Context, snsSvc snsiface.SNSAPI, topicArn string, summaries []Summary) error {
	return provisioner.PublishToTopic(ctx, snsSvc, topicArn, weeklySubject, Message(summaries))
}

func getStatistics(
	ctx context.Context,
	cw cloudwatchiface.CloudWatchAPI,
	instanceId string,
	metricName string,
	start time.Time,
	end time.Time,
	periodSeconds int64,
	statistics ...string,
) ([]*cloudwatch.Datapoint, error) {
	out, err := cw.GetMetricStatisticsWithContext(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(provisioner.Namespace),
		MetricName: aws.String(metricName),
		Dimensions: []*cloudwatch.Dimension{
			{
				Name:  aws.String(provisioner.DimensionName),
				Value: aws.String(instanceId),
			},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int64(periodSeconds),
		Statistics: aws.StringSlice(statistics),
	})
	if err != nil {
		return nil, err
	}

	return out.Datapoints, nil
}

// CloudWatch returns datapoints in no particular order
func latestDatapoint(datapoints []*cloudwatch.Datapoint) *cloudwatch.Datapoint {
	if len(datapoints) == 0 {
		return nil
	}

	sorted := append([]*cloudwatch.Datapoint{}, datapoints...)

	sort.Slice(sorted, func(i, j int) bool {
		return aws.TimeValue(sorted[i].Timestamp).After(aws.TimeValue(sorted[j].Timestamp))
	})

	return sorted[0]
}
