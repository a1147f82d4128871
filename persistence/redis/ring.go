package redis

import (
	"strconv"

	"github.com/buraksezer/consistent"
	"github.com/spaolacci/murmur3"
)

type hasher struct{}

func (h hasher) Sum64(data []byte) uint64 {
	return murmur3.Sum64(data)
}

type partition string

func (p partition) String() string {
	return string(p)
}

// Ring maps a hostname to one of the storage partitions, so that all patterns
// learned on a site live under the same key.
type Ring struct {
	hring      *consistent.Consistent
	partitions []string
}

func NewRing(partitionCount int) *Ring {
	if partitionCount < 1 {
		partitionCount = 1
	}
	members := make([]consistent.Member, 0, partitionCount)
	partitions := make([]string, 0, partitionCount)
	for i := 0; i < partitionCount; i++ {
		members = append(members, partition(strconv.Itoa(i)))
		partitions = append(partitions, strconv.Itoa(i))
	}
	cfg := consistent.Config{
		PartitionCount:    271,
		ReplicationFactor: 20,
		Load:              1.25,
		Hasher:            hasher{},
	}
	return &Ring{
		hring:      consistent.New(members, cfg),
		partitions: partitions,
	}
}

func (r *Ring) GetPartition(key string) string {
	return r.hring.LocateKey([]byte(key)).String()
}

func (r *Ring) Partitions() []string {
	return r.partitions
}
