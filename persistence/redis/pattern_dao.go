package redis

import (
	"context"
	"errors"
	"sort"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/util"
	"go.uber.org/zap"
)

const PATTERN_KEY string = "PATTERN"
const PATTERN_INDEX_KEY string = "PATTERN_IDX"

var _ persistence.PatternStore = new(redisPatternDao)

// redisPatternDao keeps one hash per partition (pattern id -> record) and an
// index hash from pattern id to its partition.
type redisPatternDao struct {
	baseDao
	ring           *Ring
	encoderDecoder util.EncoderDecoder[model.AutomationPatternData]
}

func NewRedisPatternDao(conf Config) *redisPatternDao {
	return &redisPatternDao{
		baseDao:        *newBaseDao(conf),
		ring:           NewRing(conf.PartitionCount),
		encoderDecoder: util.NewJsonEncoderDecoder[model.AutomationPatternData](),
	}
}

func (r *redisPatternDao) partitionKey(part string) string {
	return r.getNamespaceKey(PATTERN_KEY, part)
}

func (r *redisPatternDao) Save(p model.AutomationPatternData) error {
	part := r.ring.GetPartition(p.Context.Hostname)
	data, err := r.encoderDecoder.Encode(p)
	if err != nil {
		return err
	}
	ctx := context.Background()
	_, err = r.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HSet(ctx, r.partitionKey(part), p.Id, string(data))
		pipe.HSet(ctx, r.getNamespaceKey(PATTERN_INDEX_KEY), p.Id, part)
		return nil
	})
	if err != nil {
		logger.Error("error in saving pattern", zap.String("pattern", p.Id), zap.String("partition", part), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisPatternDao) locate(ctx context.Context, id string) (string, error) {
	part, err := r.redisClient.HGet(ctx, r.getNamespaceKey(PATTERN_INDEX_KEY), id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return "", persistence.ErrNotFound
		}
		return "", persistence.StorageLayerError{Message: err.Error()}
	}
	return part, nil
}

func (r *redisPatternDao) Get(id string) (*model.AutomationPatternData, error) {
	ctx := context.Background()
	part, err := r.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	val, err := r.redisClient.HGet(ctx, r.partitionKey(part), id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ErrNotFound
		}
		logger.Error("error in getting pattern", zap.String("pattern", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.encoderDecoder.Decode([]byte(val))
}

func (r *redisPatternDao) LoadAll(filter persistence.PatternFilter) ([]model.AutomationPatternData, error) {
	partitions := r.ring.Partitions()
	if filter.Hostname != "" {
		partitions = []string{r.ring.GetPartition(filter.Hostname)}
	}
	ctx := context.Background()
	var out []model.AutomationPatternData
	for _, part := range partitions {
		vals, err := r.redisClient.HVals(ctx, r.partitionKey(part)).Result()
		if err != nil {
			logger.Error("error in loading patterns", zap.String("partition", part), zap.Error(err))
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		patterns, err := r.encoderDecoder.DecodeAll(vals)
		if err != nil {
			return nil, err
		}
		for _, p := range patterns {
			if filter.Matches(p) {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Id < out[j].Id
	})
	return out, nil
}

func (r *redisPatternDao) Delete(id string) error {
	ctx := context.Background()
	part, err := r.locate(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HDel(ctx, r.partitionKey(part), id)
		pipe.HDel(ctx, r.getNamespaceKey(PATTERN_INDEX_KEY), id)
		return nil
	})
	if err != nil {
		logger.Error("error in deleting pattern", zap.String("pattern", id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
