package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

const handlerTimeout = 30 * time.Second

// Handler receives raw station payloads. Implemented by services.IngestService.
type Handler interface {
	HandleMeasurementPayload(ctx context.Context, stationID int64, payload []byte) error
	HandleSatellitePayload(ctx context.Context, stationID int64, payload []byte) error
}

// Client wraps the MQTT client with station ingestion functionality
type Client struct {
	client       mqtt.Client
	cfg          config.MQTTConfig
	handler      Handler
	errorHandler func(error)
	logger       *zap.Logger

	mu          sync.RWMutex
	isConnected bool
	subscribed  bool
}

// NewClient creates a new MQTT client for monitoring stations
func NewClient(cfg config.MQTTConfig, handler Handler, logger *zap.Logger) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetPingTimeout(cfg.PingTimeout)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(cfg.ConnectRetry)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := &Client{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}

	opts.SetDefaultPublishHandler(client.defaultMessageHandler)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)

	client.client = mqtt.NewClient(opts)

	return client
}

// Connect establishes connection to MQTT broker
func (c *Client) Connect() error {
	c.logger.Info("connecting to MQTT broker", zap.String("broker", c.cfg.BrokerURL))

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	c.setConnected(true)
	return nil
}

// Disconnect closes the MQTT connection
func (c *Client) Disconnect() {
	if c.IsConnected() {
		c.client.Disconnect(250)
		c.setConnected(false)
		c.logger.Info("disconnected from MQTT broker")
	}
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected && c.client.IsConnected()
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.isConnected = v
	c.mu.Unlock()
}

// SetErrorHandler sets the callback function for errors
func (c *Client) SetErrorHandler(handler func(error)) {
	c.errorHandler = handler
}

// Subscribe subscribes to the measurement and satellite topics
func (c *Client) Subscribe() error {
	topics := map[string]mqtt.MessageHandler{
		c.cfg.TopicMeasurements: c.measurementHandler,
		c.cfg.TopicSatellite:    c.satelliteHandler,
	}

	for topic, handler := range topics {
		if topic == "" {
			continue
		}
		if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
		}
		c.logger.Info("subscribed to topic", zap.String("topic", topic))
	}

	c.mu.Lock()
	c.subscribed = true
	c.mu.Unlock()
	return nil
}

// StationIDFromTopic extracts the station id matched by the single "+" wildcard of pattern.
func StationIDFromTopic(pattern, topic string) (int64, error) {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")
	if len(patternParts) != len(topicParts) {
		return 0, fmt.Errorf("topic %q does not match %q", topic, pattern)
	}

	raw := ""
	for i, p := range patternParts {
		switch p {
		case "+":
			raw = topicParts[i]
		case topicParts[i]:
		default:
			return 0, fmt.Errorf("topic %q does not match %q", topic, pattern)
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid station id %q in topic %q", raw, topic)
	}
	return id, nil
}

func (c *Client) measurementHandler(_ mqtt.Client, msg mqtt.Message) {
	c.dispatch(c.cfg.TopicMeasurements, msg.Topic(), msg.Payload(), c.handler.HandleMeasurementPayload)
}

func (c *Client) satelliteHandler(_ mqtt.Client, msg mqtt.Message) {
	c.dispatch(c.cfg.TopicSatellite, msg.Topic(), msg.Payload(), c.handler.HandleSatellitePayload)
}

func (c *Client) dispatch(pattern, topic string, payload []byte, handle func(context.Context, int64, []byte) error) {
	c.logger.Debug("received message", zap.String("topic", topic), zap.ByteString("payload", payload))

	stationID, err := StationIDFromTopic(pattern, topic)
	if err != nil {
		c.reportError(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := handle(ctx, stationID, payload); err != nil {
		c.reportError(fmt.Errorf("station %d payload on %s: %w", stationID, topic, err))
	}
}

func (c *Client) reportError(err error) {
	c.logger.Warn("failed to process MQTT message", zap.Error(err))
	if c.errorHandler != nil {
		c.errorHandler(err)
	}
}

// defaultMessageHandler handles messages on unsubscribed topics
func (c *Client) defaultMessageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.logger.Debug("message on unhandled topic", zap.String("topic", msg.Topic()))
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.logger.Info("MQTT client connected")
	c.setConnected(true)

	// clean sessions drop subscriptions on reconnect
	c.mu.RLock()
	resubscribe := c.subscribed
	c.mu.RUnlock()
	if resubscribe {
		if err := c.Subscribe(); err != nil {
			c.reportError(err)
		}
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("MQTT connection lost", zap.Error(err))
	c.setConnected(false)

	if c.errorHandler != nil {
		c.errorHandler(fmt.Errorf("MQTT connection lost: %w", err))
	}
}

// MeasurementTopic builds the concrete topic a station publishes measurements on
func MeasurementTopic(pattern string, stationID int64) string {
	return strings.Replace(pattern, "+", strconv.FormatInt(stationID, 10), 1)
}

// PublishMeasurement publishes a measurement payload for a station. Used by the simulator.
func (c *Client) PublishMeasurement(stationID int64, data models.MeasurementData) error {
	return c.publishJSON(MeasurementTopic(c.cfg.TopicMeasurements, stationID), data)
}

// PublishSatellite publishes a satellite scene for a station. Used by the simulator.
func (c *Client) PublishSatellite(stationID int64, scene models.SatelliteSceneData) error {
	return c.publishJSON(MeasurementTopic(c.cfg.TopicSatellite, stationID), scene)
}

func (c *Client) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if token := c.client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	c.logger.Debug("published", zap.String("topic", topic))
	return nil
}
