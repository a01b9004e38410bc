package alarmconfig

type Config struct {
	Instances    []string          `json:"instances"`
	Metrics      map[string]Metric `json:"metrics"`
	SnsTopicName string            `json:"sns_topic_name"`
	Email        string            `json:"email"`
	AccountId    string            `json:"account_id"`
	Region       string            `json:"region"`

	// optional
	ErrorTopicArn string `json:"error_topic_arn,omitempty"` // stakeholders get notified here on failures
	LogFile       string `json:"log_file,omitempty"`
}

type Metric struct {
	Threshold          *float64 `json:"threshold"` // pointer so we can tell zero from missing
	ComparisonOperator string   `json:"comparison_operator"`

	// optional, have defaults
	Statistic         string `json:"statistic,omitempty"`
	Period            int64  `json:"period,omitempty"` // seconds
	EvaluationPeriods int64  `json:"evaluation_periods,omitempty"`
}

func (m Metric) StatisticOrDefault() string {
	if m.Statistic == "" {
		return DefaultStatistic
	}
	return m.Statistic
}

func (m Metric) PeriodOrDefault() int64 {
	if m.Period == 0 {
		return DefaultPeriodSeconds
	}
	return m.Period
}

func (m Metric) EvaluationPeriodsOrDefault() int64 {
	if m.EvaluationPeriods == 0 {
		return DefaultEvaluationPeriods
	}
	return m.EvaluationPeriods
}
