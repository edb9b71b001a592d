package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aasmall/dice10k-relay/lib/envreader"
)

type envConfig struct {
	projectID          string
	logName            string
	podName            string
	serverPort         string
	slashCommand       string
	slackAPIToken      string
	slackAPIURL        string
	slackSigningSecret string
	kmsSlackKey        string
	mockKMSURL         string
	dice10kURL         string
	dice10kTimeout     time.Duration
	actionTimeout      time.Duration
	redisHosts         []string
	redisPort          string
	gameTTL            time.Duration
	traceProbability   float64
	debug              bool
	local              bool
}

func getEnvironmentalConfig(opts ...envreader.Option) (*envConfig, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		opts = append([]envreader.Option{envreader.WithConfigFile(path)}, opts...)
	}
	configReader := envreader.NewEnvReader(opts...)
	config := &envConfig{
		projectID:        configReader.GetEnvOpt("PROJECT_ID"),
		logName:          configReader.GetEnvDefault("LOG_NAME", "dice10k-relay"),
		podName:          configReader.GetEnvOpt("POD_NAME"),
		serverPort:       configReader.GetEnvDefault("SERVER_PORT", ":8080"),
		slashCommand:     configReader.GetEnvDefault("SLASH_COMMAND", "/dice10k"),
		slackAPIToken:    configReader.GetEnv("SLACK_API_TOKEN"),
		slackAPIURL:      configReader.GetEnvOpt("SLACK_API_URL"),
		kmsSlackKey:      configReader.GetEnvOpt("KMS_SLACK_KEY"),
		mockKMSURL:       configReader.GetEnvOpt("MOCK_KMS_URL"),
		dice10kURL:       configReader.GetEnvDefault("DICE10K_API_URL", "http://localhost:3000"),
		dice10kTimeout:   configReader.GetEnvDurationOpt("DICE10K_TIMEOUT", 5*time.Second),
		actionTimeout:    configReader.GetEnvDurationOpt("ACTION_TIMEOUT", 30*time.Second),
		redisHosts:       configReader.GetEnvListOpt("REDIS_HOSTS"),
		redisPort:        configReader.GetEnvDefault("REDIS_PORT", "6379"),
		gameTTL:          configReader.GetEnvDurationOpt("GAME_TTL", 24*time.Hour),
		traceProbability: configReader.GetEnvFloatOpt("TRACE_PROBABILITY", 0),
		debug:            configReader.GetEnvBoolOpt("DEBUG"),
		local:            configReader.GetEnvBoolOpt("LOCAL"),
	}
	if selector := configReader.GetEnvOpt("REDIS_LABEL_SELECTOR"); len(config.redisHosts) == 0 && selector != "" {
		config.redisHosts = configReader.GetPodHosts(configReader.GetEnvDefault("REDIS_NAMESPACE", "default"), selector)
	}

	// the signing secret is KMS ciphertext when KMS_SLACK_KEY is set
	config.slackSigningSecret = configReader.GetEnvOpt("SLACK_SIGNING_SECRET")
	if path := configReader.GetEnvOpt("SLACK_SIGNING_SECRET_FILE"); config.slackSigningSecret == "" && path != "" {
		content := configReader.GetFromFile(path)
		if config.kmsSlackKey != "" {
			config.slackSigningSecret = base64.StdEncoding.EncodeToString(content)
		} else {
			config.slackSigningSecret = strings.TrimSpace(string(content))
		}
	}

	if configReader.Errors {
		return nil, fmt.Errorf("could not gather config. Failed variables: %v", configReader.MissingKeys)
	}
	return config, nil
}

func (c *envConfig) redisAddresses() []string {
	addrs := make([]string, len(c.redisHosts))
	for i, h := range c.redisHosts {
		addrs[i] = fmt.Sprintf("%s:%s", strings.TrimSpace(h), c.redisPort)
	}
	return addrs
}
