package game

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type RedisSnapshotTracker struct {
	rdclient *redis.Client
}

func NewRedisSnapshotTracker(redisURL string, redisPW string, redisDB int) *RedisSnapshotTracker {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisSnapshotTracker{
		rdclient: rdclient,
	}
}

func snapshotKey(tableCode string) string {
	return fmt.Sprintf("table.%s.snapshot", tableCode)
}

func (r *RedisSnapshotTracker) Load(tableCode string) (*Snapshot, error) {
	snapshotBytes, err := r.rdclient.Get(context.Background(), snapshotKey(tableCode)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("Snapshot for table: %s is not found", tableCode)
	} else if err != nil {
		return nil, err
	}
	snapshot := &Snapshot{}
	err = json.Unmarshal(snapshotBytes, snapshot)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *RedisSnapshotTracker) Save(tableCode string, snapshot *Snapshot) error {
	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.rdclient.Set(context.Background(), snapshotKey(tableCode), snapshotBytes, 0).Err()
}

func (r *RedisSnapshotTracker) Remove(tableCode string) error {
	return r.rdclient.Del(context.Background(), snapshotKey(tableCode)).Err()
}

func (r *RedisSnapshotTracker) Close() error {
	return r.rdclient.Close()
}
