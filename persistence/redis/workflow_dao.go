package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/util"
)

var _ persistence.WorkflowStore = new(redisWorkflowDao)

const WORKFLOW_DEF string = "WF_DEF"

type redisWorkflowDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.WorkflowDefinition]
}

func NewRedisWorkflowDao(conf Config) *redisWorkflowDao {
	return &redisWorkflowDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.WorkflowDefinition](),
	}
}

func (rfd *redisWorkflowDao) Save(wf model.WorkflowDefinition) error {
	key := rfd.baseDao.getNamespaceKey(WORKFLOW_DEF, wf.Name)
	ctx := context.Background()
	data, err := rfd.encoderDecoder.Encode(wf)
	if err != nil {
		return err
	}
	if err := rfd.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisWorkflowDao) Delete(name string) error {
	key := rfd.baseDao.getNamespaceKey(WORKFLOW_DEF, name)
	ctx := context.Background()
	if err := rfd.redisClient.Del(ctx, key).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisWorkflowDao) Get(name string) (*model.WorkflowDefinition, error) {
	key := rfd.baseDao.getNamespaceKey(WORKFLOW_DEF, name)
	ctx := context.Background()
	val, err := rfd.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rfd.encoderDecoder.Decode([]byte(val))
}
