package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fleet-track/config"
	"fleet-track/models"

	"github.com/go-redis/redis/v8"
)

// RedisClient caches the last-known device state for dashboards and fans out
// notification payloads. The cache is best-effort; the event log in the
// database stays authoritative.
type RedisClient struct {
	client   *redis.Client
	ctx      context.Context
	stateTTL time.Duration
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	// Test connection
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:   rdb,
		ctx:      ctx,
		stateTTL: cfg.StateTTL,
	}, nil
}

func deviceStateKey(accountID, deviceID string) string {
	return fmt.Sprintf("device:state:%s:%s", accountID, deviceID)
}

// SaveDeviceState caches the device's last-known state as JSON with a TTL.
func (r *RedisClient) SaveDeviceState(device *models.Device) error {
	stateJSON, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device state: %w", err)
	}

	key := deviceStateKey(device.AccountID, device.DeviceID)
	err = r.client.Set(r.ctx, key, stateJSON, r.stateTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to save device state to Redis: %w", err)
	}
	return nil
}

// GetDeviceState returns the cached last-known state, or nil when the cache
// is cold or expired.
func (r *RedisClient) GetDeviceState(accountID, deviceID string) (*models.Device, error) {
	key := deviceStateKey(accountID, deviceID)
	stateJSON, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device state from Redis: %w", err)
	}

	var device models.Device
	if err := json.Unmarshal([]byte(stateJSON), &device); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device state: %w", err)
	}
	return &device, nil
}

// PublishNotification fans a notification payload out on the account's
// notify channel.
func (r *RedisClient) PublishNotification(accountID string, payload []byte) error {
	channel := fmt.Sprintf("fleet:notify:%s", accountID)
	return r.client.Publish(r.ctx, channel, payload).Err()
}

// PublishTransition fans a geozone transition out on the account's notify
// channel.
func (r *RedisClient) PublishTransition(device *models.Device, t models.GeozoneTransition) error {
	payload, err := json.Marshal(map[string]interface{}{
		"accountId":  device.AccountID,
		"deviceId":   device.DeviceID,
		"transition": t.Type.String(),
		"geozoneId":  t.Zone.GeozoneID,
		"statusCode": t.Type.StatusCode(),
		"timestamp":  t.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transition: %w", err)
	}
	return r.PublishNotification(device.AccountID, payload)
}

// Close releases the underlying connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
