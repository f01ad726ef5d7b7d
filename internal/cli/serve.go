package cli

import (
	"time"

	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/config"
	"github.com/vburojevic/mcrevive/internal/notify"
	"github.com/vburojevic/mcrevive/internal/relay"
)

// ServeCmd runs the report server
type ServeCmd struct {
	Listen      string        `default:"${config_listen}" help:"host:port to accept reports on"`
	Gateway     string        `default:"${config_gateway}" help:"Where notifications go (log, discord, webhook)"`
	IdleTimeout time.Duration `name:"idle-timeout" help:"Close connections silent for this long (default from config, 0 waits forever)"`
}

// Run executes the serve command
func (c *ServeCmd) Run(globals *Globals) error {
	logger := globals.logger().With(zap.String("component", "relay"))
	defer func() { _ = logger.Sync() }()

	notifyCfg := globals.Config.Notify
	if c.Gateway != "" {
		notifyCfg.Gateway = c.Gateway
	}
	gateway, err := buildGateway(notifyCfg, logger)
	if err != nil {
		return outputErrorCommon(globals, "GATEWAY_UNAVAILABLE", err.Error(),
			"check notify.* in the config file or MCREVIVE_NOTIFY_* variables")
	}
	serialized := notify.NewSerialized(gateway, notifyCfg.RatePerSecond, notifyCfg.Burst)
	defer func() {
		if err := serialized.Close(); err != nil {
			logger.Warn("closing gateway", zap.Error(err))
		}
	}()

	serverCfg := globals.Config.Server
	if c.Listen != "" {
		serverCfg.Listen = c.Listen
	}
	if c.IdleTimeout > 0 {
		serverCfg.IdleTimeout = c.IdleTimeout
	}
	srv := relay.New(relay.Config{
		Addr:        serverCfg.Listen,
		IdleTimeout: serverCfg.IdleTimeout,
		ReadBuffer:  serverCfg.ReadBuffer,
		Logger:      logger,
	}, serialized)
	if err := srv.Listen(); err != nil {
		return outputErrorCommon(globals, "LISTEN_FAILED", err.Error(),
			"is another server already bound to this address?")
	}

	ctx, stop := signalContext()
	defer stop()
	return srv.Serve(ctx)
}

// buildGateway creates the configured chat gateway.
func buildGateway(cfg config.NotifyConfig, logger *zap.Logger) (notify.Gateway, error) {
	kind, err := notify.ParseKind(cfg.Gateway)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch kind {
	case notify.KindDiscord:
		return notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID)
	case notify.KindWebhook:
		return notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout)
	default:
		return notify.NewLog(logger.Named("chat")), nil
	}
}
