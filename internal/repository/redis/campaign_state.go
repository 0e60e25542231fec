package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis campaign state.
func snapshotKey(campaignID string) string { return "campaign:" + campaignID + ":snapshot" }
func commandsKey(campaignID, country string) string {
	return "campaign:" + campaignID + ":commands:" + country
}
func pendingKey(campaignID string) string { return "campaign:" + campaignID + ":pending" }

// SetSnapshot stores the compressed live snapshot.
func (c *Client) SetSnapshot(ctx context.Context, campaignID string, snapshot []byte) error {
	return c.rdb.Set(ctx, snapshotKey(campaignID), snapshot, 0).Err()
}

// GetSnapshot retrieves the compressed live snapshot, or nil if not cached.
func (c *Client) GetSnapshot(ctx context.Context, campaignID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(campaignID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return data, nil
}

// QueueCommands appends a country's command batch for the next tick.
func (c *Client) QueueCommands(ctx context.Context, campaignID, country string, commands json.RawMessage) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, commandsKey(campaignID, country), []byte(commands))
		pipe.SAdd(ctx, pendingKey(campaignID), country)
		return nil
	})
	if err != nil {
		return fmt.Errorf("queue commands: %w", err)
	}
	return nil
}

// DrainCommands removes and returns every queued batch, keyed by country in
// submission order. Each country's list is read and cleared atomically, so a
// batch queued concurrently lands either in this drain or the next one.
func (c *Client) DrainCommands(ctx context.Context, campaignID string) (map[string][]json.RawMessage, error) {
	countries, err := c.rdb.SMembers(ctx, pendingKey(campaignID)).Result()
	if err != nil {
		return nil, fmt.Errorf("pending countries: %w", err)
	}
	slices.Sort(countries)

	ranges := make([]*redis.StringSliceCmd, len(countries))
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, country := range countries {
			ranges[i] = pipe.LRange(ctx, commandsKey(campaignID, country), 0, -1)
			pipe.Del(ctx, commandsKey(campaignID, country))
			pipe.SRem(ctx, pendingKey(campaignID), country)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain commands: %w", err)
	}

	result := make(map[string][]json.RawMessage, len(countries))
	for i, country := range countries {
		for _, raw := range ranges[i].Val() {
			result[country] = append(result[country], json.RawMessage(raw))
		}
	}
	return result, nil
}

// DeleteCampaignData removes all Redis keys for a campaign.
func (c *Client) DeleteCampaignData(ctx context.Context, campaignID string) error {
	countries, err := c.rdb.SMembers(ctx, pendingKey(campaignID)).Result()
	if err != nil {
		return fmt.Errorf("pending countries: %w", err)
	}
	keys := []string{snapshotKey(campaignID), pendingKey(campaignID)}
	for _, country := range countries {
		keys = append(keys, commandsKey(campaignID, country))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
