package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
)

// NewNatsConnection is a no-op when no nats_urls are configured, in which
// case transcription events are not published.
func NewNatsConnection(appCnf *config.AppConfig) error {
	info := appCnf.NatsInfo
	if len(info.NatsUrls) == 0 {
		appCnf.Logger.Infoln("nats_urls not set, transcription events are disabled")
		return nil
	}

	opts := []nats.Option{
		nats.Name("voxscribe-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				appCnf.Logger.WithError(err).Warnln("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			appCnf.Logger.WithField("address", nc.ConnectedAddr()).Infoln("reconnected to NATS")
		}),
	}

	if info.Nkey != nil && *info.Nkey != "" {
		opt, err := nkeyOptionFromSeed(*info.Nkey)
		if err != nil {
			return err
		}
		opts = append(opts, opt)
	} else if info.User != "" {
		opts = append(opts, nats.UserInfo(info.User, info.Password))
	}

	nc, err := nats.Connect(strings.Join(info.NatsUrls, ","), opts...)
	if err != nil {
		return err
	}
	appCnf.NatsConn = nc

	appCnf.Logger.WithFields(logrus.Fields{
		"version": nc.ConnectedServerVersion(),
		"address": nc.ConnectedAddr(),
	}).Info("successfully connected to NATS server")

	return nil
}

func nkeyOptionFromSeed(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(strings.TrimSpace(seed)))
	if err != nil {
		return nil, fmt.Errorf("invalid nats nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, err
	}
	if !nkeys.IsValidPublicUserKey(pub) {
		return nil, fmt.Errorf("nats nkey seed is not a user seed")
	}

	return nats.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}
