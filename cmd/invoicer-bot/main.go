package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gebv/invoicer/config"
	"github.com/gebv/invoicer/httputils"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/services/bot"
	"github.com/gebv/invoicer/services/invoices"
)

var (
	VERSION = "dev"

	credentialsPathF = flag.String("credentials", config.DefaultCredentialsPath, "PayPal credentials file.")
	productsPathF    = flag.String("products", config.DefaultProductsPath, "Product catalog file.")
	botConfigPathF   = flag.String("bot-config", config.DefaultBotConfigPath, "Discord bot config file.")
	debugAddrF       = flag.String("debug-addr", "127.0.0.1:9090", "Debug server address (/metrics), empty to disable.")
	syncOnReadyF     = flag.Bool("sync-on-ready", false, "Register guild commands on connect.")
	logLevelF        = flag.String("log-level", "INFO", "Logger level.")
)

func main() {
	flag.Parse()
	defaultLogger(*logLevelF)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	zap.L().Info("Starting invoicer bot...", zap.String("version", VERSION))
	defer func() { zap.L().Info("Done.") }()

	store := config.NewStore(*credentialsPathF, *productsPathF, *botConfigPathF)
	creds, err := store.LoadCredentials()
	if err != nil {
		zap.L().Fatal("Failed load credentials", zap.Error(err))
	}
	botCfg, err := store.LoadBotConfig()
	if err != nil {
		zap.L().Fatal("Failed load bot config", zap.Error(err))
	}

	p := paypal.NewProvider(paypal.Config{EntrypointURL: os.Getenv("PAYPAL_ENTRYPOINT_URL")}, creds, store)
	prometheus.MustRegister(p)

	loginCtx, loginCancel := context.WithTimeout(ctx, time.Minute)
	err = p.Login(loginCtx)
	loginCancel()
	if err != nil {
		// commands answer with an auth error until restart
		zap.L().Error("Failed login to PayPal", zap.Error(err))
	}

	var pub invoices.Publisher
	if url := os.Getenv("NATS_URL"); url != "" {
		ec := setupNATS(url)
		defer ec.Close()
		pub = ec
	}

	if *debugAddrF != "" {
		debugSrv := httputils.RunDebugServer(*debugAddrF)
		defer debugSrv.Close()
	}

	b, err := bot.New(bot.Config{BotConfig: botCfg, SyncOnReady: *syncOnReadyF}, invoices.NewService(p, pub))
	if err != nil {
		zap.L().Fatal("Failed setup bot", zap.Error(err))
	}
	if err := b.Run(ctx); err != nil {
		zap.L().Error("Bot stopped with error", zap.Error(err))
	}
}

func setupNATS(url string) *nats.EncodedConn {
	nc, err := nats.Connect(url, nats.Name("invoicer-bot"))
	if err != nil {
		zap.L().Fatal("Failed connect to NATS", zap.String("url", url), zap.Error(err))
	}
	ec, err := nats.NewEncodedConn(nc, nats.JSON_ENCODER)
	if err != nil {
		zap.L().Fatal("Failed new encoded NATS connection", zap.Error(err))
	}
	zap.L().Info("NATS - Connected!")
	return ec
}

// Configure configure zap logger.
//
// Available values of level:
// - DEBUG
// - INFO
// - WARN
// - ERROR
func defaultLogger(levelSet string) {
	level := zapcore.InfoLevel
	if err := level.Set(levelSet); err != nil {
		panic(err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(level)
	l, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l.Named("stdlog"))
}
