package memory

import (
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/util"
	c "github.com/patrickmn/go-cache"
)

var _ persistence.WorkflowStore = new(WorkflowStore)

type WorkflowStore struct {
	cache          *c.Cache
	encoderDecoder util.EncoderDecoder[model.WorkflowDefinition]
}

func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{
		cache:          c.New(c.NoExpiration, 0),
		encoderDecoder: util.NewJsonEncoderDecoder[model.WorkflowDefinition](),
	}
}

func (s *WorkflowStore) Save(def model.WorkflowDefinition) error {
	data, err := s.encoderDecoder.Encode(def)
	if err != nil {
		return err
	}
	s.cache.Set(def.Name, data, c.NoExpiration)
	return nil
}

func (s *WorkflowStore) Get(name string) (*model.WorkflowDefinition, error) {
	v, found := s.cache.Get(name)
	if !found {
		return nil, persistence.ErrNotFound
	}
	return s.encoderDecoder.Decode(v.([]byte))
}

func (s *WorkflowStore) Delete(name string) error {
	s.cache.Delete(name)
	return nil
}
