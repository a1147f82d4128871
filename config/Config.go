package config

import (
	"time"

	"github.com/mohitkumar/autopilot/analytics"
)

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig          RedisStorageConfig
	HttpPort             int
	StorageType          StorageType
	ActuatorConfig       ActuatorConfig
	AnalyticsConfig      analytics.DataCollectorConfig
	SweepInterval        time.Duration
	PruneUnreliable      bool
	WorkflowExecCapacity int
	LogLevel             string
}

type RedisStorageConfig struct {
	Addrs          []string
	Namespace      string
	PartitionCount int
}

type ActuatorConfig struct {
	BaseUrl       string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}
