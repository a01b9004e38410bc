// Makes CloudWatch have one alarm per (instance, metric) pair, all publishing to one SNS topic
package provisioner

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/function61/ec2-alarms/pkg/alarmconfig"
	"github.com/function61/gokit/logex"
)

type Provisioner struct {
	conf *alarmconfig.Config
	cw   cloudwatchiface.CloudWatchAPI
	sns  snsiface.SNSAPI
	logl *logex.Leveled
}

func New(
	conf *alarmconfig.Config,
	cw cloudwatchiface.CloudWatchAPI,
	snsSvc snsiface.SNSAPI,
	logger *log.Logger,
) *Provisioner {
	return &Provisioner{
		conf: conf,
		cw:   cw,
		sns:  snsSvc,
		logl: logex.Levels(logger),
	}
}

func NewFromSession(conf *alarmconfig.Config, sess *session.Session, logger *log.Logger) *Provisioner {
	return New(conf, cloudwatch.New(sess), sns.New(sess), logger)
}

// Run does the whole thing: topic, subscription and alarms. stops at first error and
// leaves already made changes in place (re-running converges).
func (p *Provisioner) Run(ctx context.Context) error {
	if err := p.run(ctx); err != nil {
		p.NotifyStakeholders(ctx, "Setup", err)

		return err
	}

	return nil
}

func (p *Provisioner) run(ctx context.Context) error {
	topicArn, err := p.EnsureTopic(ctx)
	if err != nil {
		return fmt.Errorf("ensure topic: %v", err)
	}

	count, err := p.ProvisionAlarms(ctx, topicArn)
	if err != nil {
		return fmt.Errorf("provision alarms (%d done): %v", count, err)
	}

	p.logl.Info.Printf(
		"%d alarm(s) for %d instance(s) -> %s",
		count,
		len(p.conf.Instances),
		topicArn)

	return nil
}

// ProvisionAlarms issues one PutMetricAlarm (= create or update) per alarm. returns how many
// succeeded.
func (p *Provisioner) ProvisionAlarms(ctx context.Context, topicArn string) (int, error) {
	done := 0

	for _, alarm := range Alarms(p.conf) {
		if _, err := p.cw.PutMetricAlarmWithContext(ctx, alarm.putMetricAlarmInput(topicArn)); err != nil {
			return done, fmt.Errorf("put alarm %s: %v", alarm.Name, err)
		}

		p.logl.Debug.Printf("put alarm %s", alarm.Name)

		done++
	}

	return done, nil
}
