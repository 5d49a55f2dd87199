// Package kafka wraps the franz-go client with the consumer, producer and
// topic-provisioning behavior the notification pipeline needs.
package kafka

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/config"
)

// The two notification topics. Both carry MessagePack []Event payloads.
const (
	TopicPersister = "raidenx.user.notify.persister"
	TopicPublisher = "raidenx.user.notify.publisher"
)

const sessionTimeout = 30 * time.Second

// commonOpts translates the shared broker/SASL configuration into client
// options.
func commonOpts(cfg config.Kafka) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
	}
	if cfg.SSLEnabled {
		opts = append(opts, kgo.DialTLSConfig(new(tls.Config)))
		if cfg.SASLUsername != "" && cfg.SASLPassword != "" {
			opts = append(opts, kgo.SASL(plain.Auth{
				User: cfg.SASLUsername,
				Pass: cfg.SASLPassword,
			}.AsMechanism()))
		}
	}
	return opts
}
