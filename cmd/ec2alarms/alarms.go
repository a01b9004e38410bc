package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/function61/ec2-alarms/pkg/alarmconfig"
	"github.com/function61/ec2-alarms/pkg/provisioner"
	"github.com/function61/gokit/ossignal"
	"github.com/gobwas/glob"
	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"
)

const defaultAlarmNamePattern = "*_Alarm"

func alarmEntry() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alarms",
		Short: "Inspect alarms",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls [pattern]",
		Short: "List alarms whose name matches glob pattern (default " + defaultAlarmNamePattern + ")",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			pattern := defaultAlarmNamePattern
			if len(args) > 0 {
				pattern = args[0]
			}

			exitIfError(alarmList(
				ossignal.InterruptOrTerminateBackgroundCtx(nil),
				pattern))
		},
	})

	return cmd
}

func alarmList(ctx context.Context, pattern string) error {
	namePattern, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("bad pattern: %v", err)
	}

	env, err := getEnv()
	if err != nil {
		return err
	}

	alarms := []*cloudwatch.MetricAlarm{}

	if err := cloudwatch.New(env.session).DescribeAlarmsPagesWithContext(
		ctx,
		&cloudwatch.DescribeAlarmsInput{},
		func(page *cloudwatch.DescribeAlarmsOutput, lastPage bool) bool {
			alarms = append(alarms, page.MetricAlarms...)
			return true
		},
	); err != nil {
		return err
	}

	view := termtables.CreateTable()
	view.AddHeaders("Name", "State", "Metric", "Threshold", "Configured")

	configured := configuredAlarmNames(env.conf)

	for _, alarm := range matchingAlarms(alarms, namePattern) {
		view.AddRow(
			aws.StringValue(alarm.AlarmName),
			aws.StringValue(alarm.StateValue),
			aws.StringValue(alarm.MetricName),
			fmt.Sprintf("%s %g", aws.StringValue(alarm.ComparisonOperator), aws.Float64Value(alarm.Threshold)),
			boolToCheckmark(configured[aws.StringValue(alarm.AlarmName)]))
	}

	fmt.Println(view.Render())

	return nil
}

func matchingAlarms(alarms []*cloudwatch.MetricAlarm, namePattern glob.Glob) []*cloudwatch.MetricAlarm {
	matching := []*cloudwatch.MetricAlarm{}

	for _, alarm := range alarms {
		if namePattern.Match(aws.StringValue(alarm.AlarmName)) {
			matching = append(matching, alarm)
		}
	}

	return matching
}

func configuredAlarmNames(conf *alarmconfig.Config) map[string]bool {
	names := map[string]bool{}
	for _, alarm := range provisioner.Alarms(conf) {
		names[alarm.Name] = true
	}

	return names
}

func boolToCheckmark(input bool) string {
	if input {
		return "✓"
	} else {
		return "✗"
	}
}
