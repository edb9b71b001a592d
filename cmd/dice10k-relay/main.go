package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/logging"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/stackdriver/propagation"
	"github.com/aasmall/dice10k-relay/dice10k"
	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/lib/handler"
	"github.com/aasmall/dice10k-relay/lib/kms"
	log "github.com/aasmall/dice10k-relay/lib/logger"
	"github.com/aasmall/dice10k-relay/relay"
	"github.com/aasmall/dice10k-relay/slackchat"
	"github.com/go-redis/redis/v7"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
	"google.golang.org/api/option"
)

type environment struct {
	config      *envConfig
	log         *log.Logger
	traceClient *http.Client
}

func main() {
	log.Printf("hello.")
	if local, _ := strconv.ParseBool(os.Getenv("LOCAL")); local {
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env loaded: %v", err)
		}
	}
	config, err := getEnvironmentalConfig()
	if err != nil {
		log.Fatalf("ERROR OCCURED BEFORE LOGGING: %s", err)
	}
	env := &environment{config: config}
	ctx := context.Background()

	// Stackdriver Logger
	logOpts := []log.Option{
		log.WithDefaultSeverity(logging.Error),
		log.WithDebug(config.debug),
		log.WithLogName(config.logName),
		log.WithLocal(config.local),
	}
	if config.podName != "" {
		logOpts = append(logOpts, log.WithPrefix(config.podName+": "))
	}
	if config.local {
		logOpts = append(logOpts, log.WithOutput(os.Stdout))
	}
	env.log = log.New(config.projectID, logOpts...)
	env.log.Info("Logger up and running!")
	defer log.Println("Shutting down logger.")
	defer env.log.Close()

	// Stackdriver Trace exporter
	env.traceClient = &http.Client{
		Transport: &ochttp.Transport{
			// Use Google Cloud propagation format.
			Propagation: &propagation.HTTPFormat{},
		},
	}
	if !config.local && config.projectID != "" {
		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID: config.projectID,
		})
		if err != nil {
			log.Fatalf("could not configure Stackdriver Exporter: %s", err)
		}
		defer exporter.Flush()
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(config.traceProbability)})
		trace.RegisterExporter(exporter)
	}

	signingSecret, err := env.signingSecret(ctx)
	if err != nil {
		env.log.Criticalf("could not decrypt slack signing secret: %v", err)
		os.Exit(1)
	}

	games := env.gameStore()

	slackOpts := []slack.Option{
		slack.OptionHTTPClient(env.traceClient),
		slack.OptionLog(env.log),
		slack.OptionDebug(config.debug),
	}
	if config.slackAPIURL != "" {
		slackOpts = append(slackOpts, slack.OptionAPIURL(config.slackAPIURL))
	}
	chat := slackchat.NewClient(slack.New(config.slackAPIToken, slackOpts...), env.traceClient)
	gameClient := dice10k.New(config.dice10kURL,
		dice10k.WithHTTPClient(env.traceClient),
		dice10k.WithTimeout(config.dice10kTimeout))

	app := &slackchat.App{
		Relay:         relay.New(gameClient, chat, games, env.log),
		Games:         games,
		Chat:          chat,
		Log:           env.log,
		SigningSecret: signingSecret,
		SlashCommand:  config.slashCommand,
		ActionTimeout: config.actionTimeout,
		Local:         config.local,
	}

	// Define inbound Routes
	r := mux.NewRouter()
	r.Handle("/slack/commands", handler.Handler{Env: app, H: slackchat.SlashCommandHandler}).Methods(http.MethodPost)
	r.Handle("/slack/actions", handler.Handler{Env: app, H: slackchat.InteractionHandler}).Methods(http.MethodPost)
	r.Handle("/", handler.Handler{Env: app, H: slackchat.RootHandler})

	// Add OpenCensus HTTP Handler Wrapper
	openCensusWrapper := &ochttp.Handler{
		Handler:          r,
		Propagation:      &propagation.HTTPFormat{},
		IsHealthEndpoint: func(r *http.Request) bool { return r.URL.Path == "/" },
	}

	// Define a server with timeouts
	srv := &http.Server{
		Addr:         config.serverPort,
		WriteTimeout: config.actionTimeout + time.Second*5,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      openCensusWrapper,
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		env.log.Infof("listening on %s", config.serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ListenAndServe error: %+v", err)
		}
	}()

	// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
	// or SIGTERM
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive our signal.
	<-c

	// Create a deadline to wait for.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()

	// Doesn't block if no connections, but will otherwise wait
	// until the timeout deadline.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		env.log.Errorf("shutdown: %v", err)
	}
	log.Println("shut down")
}

func (env *environment) signingSecret(ctx context.Context) (string, error) {
	config := env.config
	if config.kmsSlackKey == "" || config.slackSigningSecret == "" {
		if config.slackSigningSecret == "" && config.local {
			env.log.Warning("SLACK_SIGNING_SECRET not set, slack requests will not be verified")
		} else if config.slackSigningSecret == "" {
			env.log.Error("SLACK_SIGNING_SECRET not set, every slack request will be rejected")
		}
		return config.slackSigningSecret, nil
	}
	var opts []option.ClientOption
	if config.mockKMSURL != "" {
		opts = append(opts,
			option.WithEndpoint(config.mockKMSURL),
			option.WithoutAuthentication())
	}
	decrypter, err := kms.New(ctx, opts...)
	if err != nil {
		return "", err
	}
	return decrypter.Decrypt(ctx, config.kmsSlackKey, config.slackSigningSecret)
}

func (env *environment) gameStore() game.Store {
	if len(env.config.redisHosts) == 0 {
		env.log.Warning("no redis hosts configured, keeping games in memory")
		return game.NewMemoryStore()
	}
	addrs := env.config.redisAddresses()
	env.log.Infof("Creating redis client with URIs: %v", addrs)
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: addrs,
	})
	if err := client.Ping().Err(); err != nil {
		env.log.Errorf("redis is not answering yet: %v", err)
	}
	return game.NewRedisStore(client, env.config.gameTTL)
}
