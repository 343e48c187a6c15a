package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/queuecast/core/events"
	"github.com/kilianp07/queuecast/core/model"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o644))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644))
	return
}

func useMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, tlsCfg.Certificates)
	assert.NotNil(t, tlsCfg.RootCAs)
}

func TestLoadTLSConfig_Errors(t *testing.T) {
	_, err := Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)

	cert, key, _ := generateCert(t)
	empty := filepath.Join(t.TempDir(), "empty.pem")
	require.NoError(t, os.WriteFile(empty, []byte("nothing"), 0o644))
	_, err = Config{ClientCert: cert, ClientKey: key, CABundle: empty}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)

	opts, err = NewClientOptions(Config{Broker: "tcp://localhost:1883", Username: "u", AuthMethod: "certificate"})
	require.NoError(t, err)
	assert.Empty(t, opts.Username)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "queuecast/downtown/wait", Topic("queuecast", "downtown", events.KindWait))
	assert.Equal(t, "queuecast/default/traffic", Topic("queuecast", "", events.KindTraffic))
	assert.Equal(t, "qc/a_b_c_/failure", Topic("qc", "a/b+c#", events.KindFailure))
}

func TestPublish_QoSAndEnvelope(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", QoS: map[string]byte{"wait": 1, "traffic": 2}}
	pub, err := NewPahoPublisher(cfg, nil)
	require.NoError(t, err)

	id, err := pub.Publish(events.WaitPredicted{
		Location: "downtown",
		Estimate: model.WaitEstimate{Position: 3, ExpectedMinutes: 12, Basis: model.BasisQueueing},
	})
	require.NoError(t, err)
	_, err = pub.Publish(events.TrafficForecasted{Location: "mall"})
	require.NoError(t, err)

	require.Len(t, mc.published, 2)
	assert.Equal(t, "queuecast/downtown/wait", mc.published[0].topic)
	assert.Equal(t, byte(1), mc.published[0].qos)
	assert.Equal(t, "queuecast/mall/traffic", mc.published[1].topic)
	assert.Equal(t, byte(2), mc.published[1].qos)

	var env struct {
		MessageID string `json:"message_id"`
		Kind      string `json:"kind"`
		Location  string `json:"location"`
		Payload   struct {
			Estimate model.WaitEstimate `json:"estimate"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &env))
	assert.Equal(t, id, env.MessageID)
	assert.Equal(t, "wait", env.Kind)
	assert.Equal(t, "downtown", env.Location)
	assert.Equal(t, 12.0, env.Payload.Estimate.ExpectedMinutes)
}

func TestObservedSubscription(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	var got []Observation
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", ObservedTopic: "queuecast/+/observed", QoS: map[string]byte{"observed": 1}}
	pub, err := NewPahoPublisher(cfg, func(o Observation) { got = append(got, o) })
	require.NoError(t, err)

	require.Len(t, mc.subscribed, 1)
	assert.Equal(t, "queuecast/+/observed", mc.subscribed[0].topic)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)

	pub.onObservation(nil, mockMessage{topic: "queuecast/mall/observed", p: []byte(`{"actual":12,"predicted":10}`)})
	pub.onObservation(nil, mockMessage{topic: "queuecast/mall/observed", p: []byte(`not json`)})
	pub.onObservation(nil, mockMessage{topic: "queuecast/mall/observed", p: []byte(`{"actual":-1,"predicted":10}`)})
	require.Len(t, got, 1)
	assert.Equal(t, Observation{Location: "mall", Actual: 12, Predicted: 10}, got[0])
}

func TestNoSubscriptionWithoutHandler(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	_, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ObservedTopic: "queuecast/+/observed"}, nil)
	require.NoError(t, err)
	assert.Empty(t, mc.subscribed)
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "queuecast/status", LWTPayload: "offline", LWTQoS: 1}
	pub, err := NewPahoPublisher(cfg, nil)
	require.NoError(t, err)
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "queuecast/status", mc.opts.WillTopic)
	assert.Equal(t, "offline", string(mc.opts.WillPayload))
	pub.Disconnect()
	assert.Empty(t, mc.published)
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	useMock(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1}, nil)
	require.NoError(t, err)
	_, err = pub.Publish(events.OutcomeRecorded{Location: "x"})
	require.NoError(t, err)
	assert.Len(t, mc.published, 2)
}

func TestRetryExhausted(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	useMock(t, mc)
	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1}, nil)
	require.NoError(t, err)
	_, err = pub.Publish(events.PredictionFailed{Location: "x"})
	assert.ErrorIs(t, err, fail)
	assert.Len(t, mc.published, 3)
}

func TestConnectError(t *testing.T) {
	mc := &mockClient{connectErr: fmt.Errorf("refused")}
	useMock(t, mc)
	_, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883"}, nil)
	assert.Error(t, err)
}

type publishCall struct {
	topic   string
	qos     byte
	payload []byte
}

type subscribeCall struct {
	topic string
	qos   byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts        *paho.ClientOptions
	subscribed  []subscribeCall
	published   []publishCall
	publishErrs []error
	connectErr  error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, publishCall{topic, qos, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, subscribeCall{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
