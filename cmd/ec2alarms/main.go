package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/function61/ec2-alarms/pkg/alarmconfig"
	"github.com/function61/ec2-alarms/pkg/provisioner"
	"github.com/function61/gokit/dynversion"
	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/ossignal"
	"github.com/spf13/cobra"
)

func main() {
	app := &cobra.Command{
		Use:     os.Args[0],
		Short:   "Provisions CloudWatch alarms for EC2 instances, notifying by email via SNS",
		Version: dynversion.Version,
		Args:    cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			exitIfError(provision(
				ossignal.InterruptOrTerminateBackgroundCtx(nil)))
		},
	}

	app.AddCommand(alarmEntry())

	app.AddCommand(instanceEntry())

	app.AddCommand(metricsEntry())

	app.AddCommand(summaryEntry())

	app.AddCommand(&cobra.Command{
		Use:    "lambda",
		Short:  "Entrypoint for AWS Lambda",
		Hidden: true,
		Run: func(*cobra.Command, []string) {
			lambdaHandler()
		},
	})

	exitIfError(app.Execute())
}

func provision(ctx context.Context) error {
	env, err := getEnv()
	if err != nil {
		return err
	}

	return provisioner.NewFromSession(env.conf, env.session, env.logger).Run(ctx)
}

type env struct {
	conf    *alarmconfig.Config
	session *session.Session
	logger  *log.Logger
}

// config is validated before anything touches AWS
func getEnv() (*env, error) {
	conf, err := alarmconfig.Read(configPath())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(conf)
	if err != nil {
		return nil, err
	}

	sess, err := session.NewSession(aws.NewConfig().WithRegion(conf.Region))
	if err != nil {
		return nil, err
	}

	return &env{conf, sess, logger}, nil
}

func configPath() string {
	if fromEnv := os.Getenv("EC2ALARMS_CONFIG"); fromEnv != "" {
		return fromEnv
	}

	return alarmconfig.DefaultPath
}

func newLogger(conf *alarmconfig.Config) (*log.Logger, error) {
	if conf.LogFile == "" {
		return logex.StandardLogger(), nil
	}

	logFile, err := openLogFile(conf.LogFile)
	if err != nil {
		return nil, fmt.Errorf("log_file: %v", err)
	}

	return log.New(io.MultiWriter(os.Stderr, logFile), "", log.LstdFlags), nil
}

// warm Lambda invocations run getEnv() again in the same process. files are left open for
// the lifetime of the process, so open each only once.
var (
	logFiles   = map[string]*os.File{}
	logFilesMu sync.Mutex
)

func openLogFile(path string) (*os.File, error) {
	logFilesMu.Lock()
	defer logFilesMu.Unlock()

	if logFile, open := logFiles[path]; open {
		return logFile, nil
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	logFiles[path] = logFile

	return logFile, nil
}

func exitIfError(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
