package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/function61/gokit/ossignal"
	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"
)

func instanceEntry() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Inspect configured EC2 instances",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "Show state of configured instances (alarms for missing ones never fire)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(instanceList(
				ossignal.InterruptOrTerminateBackgroundCtx(nil)))
		},
	})

	return cmd
}

type instanceRow struct {
	Id    string
	Found bool
	State string
	Type  string
	Name  string
}

func instanceList(ctx context.Context) error {
	env, err := getEnv()
	if err != nil {
		return err
	}

	instances := []*ec2.Instance{}

	// filter instead of InstanceIds, because the latter fails the whole call if one id is unknown
	if err := ec2.New(env.session).DescribeInstancesPagesWithContext(
		ctx,
		&ec2.DescribeInstancesInput{
			Filters: []*ec2.Filter{
				{
					Name:   aws.String("instance-id"),
					Values: aws.StringSlice(env.conf.Instances),
				},
			},
		},
		func(page *ec2.DescribeInstancesOutput, lastPage bool) bool {
			for _, reservation := range page.Reservations {
				instances = append(instances, reservation.Instances...)
			}
			return true
		},
	); err != nil {
		return err
	}

	view := termtables.CreateTable()
	view.AddHeaders("Id", "Found", "State", "Type", "Name")

	for _, row := range instanceRows(env.conf.Instances, instances) {
		view.AddRow(row.Id, boolToCheckmark(row.Found), row.State, row.Type, row.Name)
	}

	fmt.Println(view.Render())

	return nil
}

// one row per configured id, in configured order
func instanceRows(ids []string, instances []*ec2.Instance) []instanceRow {
	byId := map[string]*ec2.Instance{}
	for _, instance := range instances {
		byId[aws.StringValue(instance.InstanceId)] = instance
	}

	rows := []instanceRow{}

	for _, id := range ids {
		instance, found := byId[id]
		if !found {
			rows = append(rows, instanceRow{Id: id})
			continue
		}

		row := instanceRow{
			Id:    id,
			Found: true,
			Type:  aws.StringValue(instance.InstanceType),
			Name:  nameTag(instance.Tags),
		}

		if instance.State != nil {
			row.State = aws.StringValue(instance.State.Name)
		}

		rows = append(rows, row)
	}

	return rows
}

func nameTag(tags []*ec2.Tag) string {
	for _, tag := range tags {
		if aws.StringValue(tag.Key) == "Name" {
			return aws.StringValue(tag.Value)
		}
	}

	return ""
}
