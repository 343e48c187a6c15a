package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/queuecast/core/events"
	"github.com/kilianp07/queuecast/infra/logger"
)

// DefaultTopicPrefix is the first level of every published topic.
const DefaultTopicPrefix = "queuecast"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	AuthMethod  string `json:"auth_method"`
	TopicPrefix string `json:"topic_prefix"`
	// ObservedTopic is subscribed for observed waits, e.g. "queuecast/+/observed".
	ObservedTopic string          `json:"observed_topic"`
	QoS           map[string]byte `json:"qos"`
	Retain        bool            `json:"retain"`
	LWTTopic      string          `json:"lwt_topic"`
	LWTPayload    string          `json:"lwt_payload"`
	LWTQoS        byte            `json:"lwt_qos"`
	LWTRetain     bool            `json:"lwt_retain"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// Observation is an observed wait reported by a location, used to score the
// wait predictor.
type Observation struct {
	Location  string  `json:"location"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// ObservationHandler receives decoded observations.
type ObservationHandler func(Observation)

// Envelope is the JSON document published for each prediction event.
type Envelope struct {
	MessageID string       `json:"message_id"`
	Kind      events.Kind  `json:"kind"`
	Location  string       `json:"location"`
	SentAt    int64        `json:"sent_at"`
	Payload   events.Event `json:"payload"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoPublisher publishes prediction events using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	observed   string
	qos        map[string]byte
	retain     bool
	onObserved ObservationHandler
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker. When cfg.ObservedTopic and
// onObserved are both set, observed waits are subscribed on every connect.
func NewPahoPublisher(cfg Config, onObserved ObservationHandler) (*PahoPublisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_publisher")
	pp := &PahoPublisher{
		prefix:     cfg.TopicPrefix,
		observed:   cfg.ObservedTopic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		onObserved: onObserved,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if pp.prefix == "" {
		pp.prefix = DefaultTopicPrefix
	}
	if pp.maxRetries <= 0 {
		pp.maxRetries = 3
	}
	if pp.backoff <= 0 {
		pp.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if pp.observed == "" || pp.onObserved == nil {
			return
		}
		if token := c.Subscribe(pp.observed, pp.qosFor("observed"), pp.onObservation); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pp.cli = c
	return pp, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificate", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns <prefix>/<location>/<kind>. Wildcards and separators in the
// location are replaced so one location always maps to one topic level.
func Topic(prefix, location string, kind events.Kind) string {
	if location == "" {
		location = "default"
	}
	location = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(location)
	return fmt.Sprintf("%s/%s/%s", prefix, location, kind)
}

func (p *PahoPublisher) qosFor(key string) byte {
	if q, ok := p.qos[key]; ok {
		return q
	}
	return 0
}

func (p *PahoPublisher) onObservation(_ paho.Client, msg paho.Message) {
	var obs Observation
	if err := json.Unmarshal(msg.Payload(), &obs); err != nil {
		p.logger.Errorf("failed to decode observation: %v", err)
		return
	}
	if obs.Location == "" {
		// queuecast/<location>/observed
		if parts := strings.Split(msg.Topic(), "/"); len(parts) >= 3 {
			obs.Location = parts[len(parts)-2]
		}
	}
	if obs.Actual < 0 || obs.Predicted < 0 {
		p.logger.Warnf("dropping observation with negative minutes from %s", obs.Location)
		return
	}
	p.onObserved(obs)
}

// Publish sends the event to its location topic and returns the message id.
func (p *PahoPublisher) Publish(ev events.Event) (string, error) {
	env := Envelope{
		MessageID: uuid.NewString(),
		Kind:      ev.Kind(),
		Location:  ev.Where(),
		SentAt:    time.Now().UnixMilli(),
		Payload:   ev,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	topic := Topic(p.prefix, env.Location, env.Kind)
	qos := p.qosFor(string(env.Kind))

	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %s to %s", env.MessageID, topic)
			return env.MessageID, nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return "", publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
