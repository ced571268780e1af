package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gebv/invoicer/config"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/services/api"
	"github.com/gebv/invoicer/services/invoices"
)

var (
	VERSION = "dev"

	credentialsPathF = flag.String("credentials", config.DefaultCredentialsPath, "PayPal credentials file.")
	productsPathF    = flag.String("products", config.DefaultProductsPath, "Product catalog file.")
	logLevelF        = flag.String("log-level", "INFO", "Logger level.")
)

func main() {
	flag.Parse()
	defaultLogger(*logLevelF)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	zap.L().Info("Starting invoicer api...", zap.String("version", VERSION))
	defer func() { zap.L().Info("Done.") }()

	store := config.NewStore(*credentialsPathF, *productsPathF, "")
	creds, err := store.LoadCredentials()
	if err != nil {
		zap.L().Fatal("Failed load credentials", zap.Error(err))
	}

	p := paypal.NewProvider(paypal.Config{EntrypointURL: os.Getenv("PAYPAL_ENTRYPOINT_URL")}, creds, store)
	prometheus.MustRegister(p)

	loginCtx, loginCancel := context.WithTimeout(ctx, time.Minute)
	err = p.Login(loginCtx)
	loginCancel()
	if err != nil {
		zap.L().Error("Failed login to PayPal", zap.Error(err))
	}

	var pub invoices.Publisher
	if url := os.Getenv("NATS_URL"); url != "" {
		ec := setupNATS(url)
		defer ec.Close()
		pub = ec
	}

	portWeb := os.Getenv("PORT")
	if portWeb == "" {
		portWeb = "8081"
	}

	e := api.NewEcho(api.NewServer(invoices.NewService(p, pub), VERSION), prometheus.DefaultGatherer)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Failed shutdown api server", zap.Error(err))
		}
	}()

	zap.L().Info("Start api server", zap.String("address", ":"+portWeb))
	if err := e.Start(":" + portWeb); err != nil && err != http.ErrServerClosed {
		zap.L().Error("Failed run api server", zap.Error(err))
	}
}

func setupNATS(url string) *nats.EncodedConn {
	nc, err := nats.Connect(url, nats.Name("invoicer-api"))
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
