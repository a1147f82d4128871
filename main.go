package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohitkumar/autopilot/agent"
	"github.com/mohitkumar/autopilot/analytics"
	"github.com/mohitkumar/autopilot/config"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "autopilot", "namespace used in storage")
	cmd.Flags().Int("partition-count", 16, "number of storage partitions patterns are spread over")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage (redis|memory)")
	cmd.Flags().String("actuator-url", "http://localhost:7777", "base url of the browser extension bridge")
	cmd.Flags().Duration("actuator-timeout", 0, "timeout of a single bridge call")
	cmd.Flags().Int("actuator-retries", 3, "retries of a failed bridge call")
	cmd.Flags().Duration("actuator-retry-interval", 0, "wait between bridge retries")
	cmd.Flags().String("analytics-file", "", "file execution analytics are appended to, disabled when empty")
	cmd.Flags().Duration("sweep-interval", 0, "interval of the pattern maintenance sweep, disabled when zero")
	cmd.Flags().Bool("prune-unreliable", false, "delete unreliable patterns that need retraining during the sweep")
	cmd.Flags().Int("executor-capacity", 64, "queue capacity of async workflow runs")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().Bool("log-development", false, "human readable development logs")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.RedisConfig.PartitionCount = viper.GetInt("partition-count")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.ActuatorConfig.BaseUrl = viper.GetString("actuator-url")
	c.cfg.ActuatorConfig.Timeout = viper.GetDuration("actuator-timeout")
	c.cfg.ActuatorConfig.MaxRetries = viper.GetInt("actuator-retries")
	c.cfg.ActuatorConfig.RetryInterval = viper.GetDuration("actuator-retry-interval")
	if file := viper.GetString("analytics-file"); file != "" {
		c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{
			FileName:      file,
			CollectorType: analytics.LOG_FILE_DATA_COLLECTOR,
		}
	}
	c.cfg.SweepInterval = viper.GetDuration("sweep-interval")
	c.cfg.PruneUnreliable = viper.GetBool("prune-unreliable")
	c.cfg.WorkflowExecCapacity = viper.GetInt("executor-capacity")
	c.cfg.LogLevel = viper.GetString("log-level")
	return logger.Init(c.cfg.LogLevel, viper.GetBool("log-development"))
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	if err := agent.Start(); err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "autopilot",
		Short:   "learns page automation patterns and runs them as phase workflows",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
