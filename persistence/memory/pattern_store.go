// Package memory holds process-local stores backed by go-cache. Records are
// kept encoded so callers never share state with the store.
package memory

import (
	"sort"

	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/util"
	c "github.com/patrickmn/go-cache"
)

var _ persistence.PatternStore = new(PatternStore)

type PatternStore struct {
	cache          *c.Cache
	encoderDecoder util.EncoderDecoder[model.AutomationPatternData]
}

func NewPatternStore() *PatternStore {
	return &PatternStore{
		cache:          c.New(c.NoExpiration, 0),
		encoderDecoder: util.NewJsonEncoderDecoder[model.AutomationPatternData](),
	}
}

func (s *PatternStore) Save(p model.AutomationPatternData) error {
	data, err := s.encoderDecoder.Encode(p)
	if err != nil {
		return err
	}
	s.cache.Set(p.Id, data, c.NoExpiration)
	return nil
}

func (s *PatternStore) Get(id string) (*model.AutomationPatternData, error) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, persistence.ErrNotFound
	}
	return s.encoderDecoder.Decode(v.([]byte))
}

func (s *PatternStore) LoadAll(filter persistence.PatternFilter) ([]model.AutomationPatternData, error) {
	var out []model.AutomationPatternData
	for _, item := range s.cache.Items() {
		p, err := s.encoderDecoder.Decode(item.Object.([]byte))
		if err != nil {
			return nil, err
		}
		if filter.Matches(*p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Id < out[j].Id
	})
	return out, nil
}

func (s *PatternStore) Delete(id string) error {
	if _, found := s.cache.Get(id); !found {
		return persistence.ErrNotFound
	}
	s.cache.Delete(id)
	return nil
}
