package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fleet-track/config"
	"fleet-track/database"
	"fleet-track/models"
	"fleet-track/redis"
	"fleet-track/repositories/base"
	"fleet-track/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// EventMessage is the decoded JSON payload a device publishes on its event
// topic. Identity comes from the topic, not the payload.
type EventMessage struct {
	Timestamp    int64   `json:"timestamp"`
	StatusCode   int     `json:"statusCode"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	GPSAgeSec    int64   `json:"gpsAge"`
	SpeedKPH     float64 `json:"speedKPH"`
	Heading      float64 `json:"heading"`
	AltitudeM    float64 `json:"altitudeM"`
	OdometerKM   float64 `json:"odometerKM"`
	DistanceKM   float64 `json:"distanceKM"`
	GeozoneIndex int64   `json:"geozoneIndex"`
	InputMask    int64   `json:"inputMask"`
	EntityID     string  `json:"entityId"`
	DriverID     string  `json:"driverId"`
}

// ConnectMessage reports a device connect/disconnect with its session length.
type ConnectMessage struct {
	Timestamp      int64 `json:"timestamp"`
	Connected      bool  `json:"connected"`
	ConnectTimeSec int64 `json:"connectTimeSec"`
}

// Client wraps the PAHO MQTT client and feeds decoded device events into the
// ingestion pipeline. One message handler invocation at a time per device
// connection keeps per-device ingestion serialized, as the pipeline requires.
type Client struct {
	client   mqtt.Client
	db       *database.Database
	redis    *redis.RedisClient
	pipeline *services.IngestionPipeline
	logger   *slog.Logger
}

// NewClient creates and connects a new MQTT client.
func NewClient(cfg *config.Config, db *database.Database, redisClient *redis.RedisClient, pipeline *services.IngestionPipeline, logger *slog.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(1 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)

	c := &Client{
		db:       db,
		redis:    redisClient,
		pipeline: pipeline,
		logger:   logger.With("component", "mqtt_client"),
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	client := mqtt.NewClient(opts)
	c.client = client

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return c, nil
}

// Disconnect gracefully disconnects the client.
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
		c.logger.Info("MQTT Client disconnected")
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("Successfully connected to MQTT broker. Subscribing to topics...")
	c.subscribe("fleet/v1/+/+/event", c.handleEventMessage)
	c.subscribe("fleet/v1/+/+/connect", c.handleConnectMessage)
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Error("Connection lost. Reconnecting...", slog.Any("error", err))
}

func (c *Client) subscribe(topic string, handler mqtt.MessageHandler) {
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		c.logger.Error("Failed to subscribe to topic", "topic", topic, slog.Any("error", token.Error()))
	} else {
		c.logger.Info("Successfully subscribed to topic", "topic", topic)
	}
}

// parseTopic extracts (accountID, deviceID) from fleet/v1/{account}/{device}/{kind}.
func parseTopic(topic string) (string, string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != "fleet" || parts[1] != "v1" {
		return "", "", fmt.Errorf("unexpected topic format: %s", topic)
	}
	return parts[2], parts[3], nil
}

// handleEventMessage decodes one device event, runs it through the ingestion
// pipeline inside a transaction, and batches the device-state save with the
// redis cache update.
func (c *Client) handleEventMessage(client mqtt.Client, msg mqtt.Message) {
	accountID, deviceID, err := parseTopic(msg.Topic())
	if err != nil {
		c.logger.Error("Failed to parse event topic", "topic", msg.Topic(), slog.Any("error", err))
		return
	}
	logger := c.logger.With("account", accountID, "device", deviceID)

	var evMsg EventMessage
	if err := json.Unmarshal(msg.Payload(), &evMsg); err != nil {
		logger.Error("Failed to parse event payload", slog.Any("error", err))
		return
	}

	device, err := c.db.DeviceRepo.GetByKey(accountID, deviceID)
	if err != nil {
		if base.IsNotFound(err) {
			logger.Warn("Event from unknown device, dropping")
		} else {
			logger.Error("Failed to load device", slog.Any("error", err))
		}
		return
	}

	ev := &models.EventRecord{
		AccountID:    accountID,
		DeviceID:     deviceID,
		Timestamp:    evMsg.Timestamp,
		StatusCode:   evMsg.StatusCode,
		Latitude:     evMsg.Latitude,
		Longitude:    evMsg.Longitude,
		GPSAgeSec:    evMsg.GPSAgeSec,
		SpeedKPH:     evMsg.SpeedKPH,
		Heading:      evMsg.Heading,
		AltitudeM:    evMsg.AltitudeM,
		OdometerKM:   evMsg.OdometerKM,
		DistanceKM:   evMsg.DistanceKM,
		GeozoneIndex: evMsg.GeozoneIndex,
		InputMask:    evMsg.InputMask,
		EntityID:     evMsg.EntityID,
		DriverID:     evMsg.DriverID,
		RawData:      string(msg.Payload()),
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}

	tx := c.db.UoW.Begin()
	defer func() {
		if r := recover(); r != nil {
			c.db.UoW.Rollback(tx)
			panic(r)
		}
	}()

	res, err := c.pipeline.Ingest(tx, device, ev)
	if err != nil {
		c.db.UoW.Rollback(tx)
		if base.IsDuplicate(err) {
			logger.Warn("Duplicate event dropped", "timestamp", ev.Timestamp, "status_code", ev.StatusCode)
		} else {
			logger.Error("Event ingestion failed", slog.Any("error", err))
		}
		return
	}
	if err := c.db.UoW.Commit(tx); err != nil {
		logger.Error("Failed to commit event", slog.Any("error", err))
		return
	}
	if !res.Accepted {
		logger.Debug("Event filtered", "timestamp", ev.Timestamp, "status_code", ev.StatusCode)
		return
	}

	// The row is durable now; run the post-commit side of the pipeline.
	c.pipeline.Finalize(device, ev, res)

	// The pipeline mutates device state in memory only; persist it here,
	// batched per message, and refresh the dashboard cache.
	if err := c.db.DeviceRepo.SaveState(device); err != nil {
		logger.Error("Failed to save device state", slog.Any("error", err))
	}
	if c.redis != nil {
		if err := c.redis.SaveDeviceState(device); err != nil {
			logger.Warn("Failed to cache device state", slog.Any("error", err))
		}
	}
}

// handleConnectMessage updates the device's connect-time bookkeeping.
func (c *Client) handleConnectMessage(client mqtt.Client, msg mqtt.Message) {
	accountID, deviceID, err := parseTopic(msg.Topic())
	if err != nil {
		c.logger.Error("Failed to parse connect topic", "topic", msg.Topic(), slog.Any("error", err))
		return
	}
	logger := c.logger.With("account", accountID, "device", deviceID)

	var connMsg ConnectMessage
	if err := json.Unmarshal(msg.Payload(), &connMsg); err != nil {
		logger.Error("Failed to parse connect payload", slog.Any("error", err))
		return
	}
	if connMsg.Connected || connMsg.ConnectTimeSec <= 0 {
		return
	}

	device, err := c.db.DeviceRepo.GetByKey(accountID, deviceID)
	if err != nil {
		logger.Warn("Connect message for unknown device", slog.Any("error", err))
		return
	}

	device.LastTotalConnectTime += connMsg.ConnectTimeSec
	if err := c.db.DeviceRepo.SaveState(device); err != nil {
		logger.Error("Failed to save connect time", slog.Any("error", err))
	}
}
