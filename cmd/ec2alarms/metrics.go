package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/function61/ec2-alarms/pkg/metricsummary"
	"github.com/function61/ec2-alarms/pkg/provisioner"
	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/ossignal"
	"github.com/function61/gokit/stringutils"
	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"
)

func metricsEntry() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show latest value of each watched metric",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(metricsList(
				ossignal.InterruptOrTerminateBackgroundCtx(nil),
				time.Now()))
		},
	}
}

func summaryEntry() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Send past week's metrics summary to the topic",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(sendWeeklySummary(
				ossignal.InterruptOrTerminateBackgroundCtx(nil),
				time.Now()))
		},
	}
}

func metricsList(ctx context.Context, now time.Time) error {
	env, err := getEnv()
	if err != nil {
		return err
	}

	readings, err := metricsummary.Snapshot(ctx, cloudwatch.New(env.session), env.conf, now)
	if err != nil {
		return err
	}

	view := termtables.CreateTable()
	view.AddHeaders("Instance", "Metric", "Average")

	for _, reading := range readings {
		view.AddRow(reading.InstanceId, reading.MetricName, readingToText(reading))
	}

	fmt.Println(view.Render())

	return nil
}

func sendWeeklySummary(ctx context.Context, now time.Time) error {
	env, err := getEnv()
	if err != nil {
		return err
	}

	logl := logex.Levels(logex.Prefix("summary", env.logger))

	cw := cloudwatch.New(env.session)
	snsSvc := sns.New(env.session)

	summaries, topicArn, err := metricsummary.SendWeekly(
		ctx,
		provisioner.New(env.conf, cw, snsSvc, env.logger),
		cw,
		snsSvc,
		env.conf,
		now)
	if err != nil {
		return err
	}

	logl.Info.Printf("sent %d metric summaries to %s", len(summaries), topicArn)

	return nil
}

func readingToText(reading metricsummary.Reading) string {
	switch {
	case reading.Error != "":
		return "error: " + stringutils.Truncate(reading.Error, 40)
	case reading.Average == nil:
		return "-" // no datapoints
	default:
		return fmt.Sprintf("%.2f", *reading.Average)
	}
}
