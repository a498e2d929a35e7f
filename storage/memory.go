package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxRecords = 10000

type MemoryStorage struct {
	records map[string]*ImageRecord
	order   []string
	mutex   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*ImageRecord),
	}
}

func (m *MemoryStorage) SaveImage(rec *ImageRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if rec.Id == "" {
		rec.Id = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if _, ok := m.records[rec.Id]; !ok {
		m.order = append(m.order, rec.Id)
	}
	cc := *rec
	m.records[rec.Id] = &cc

	// drop the oldest records once over the limit
	for len(m.order) > maxRecords {
		delete(m.records, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStorage) GetImage(id string) (*ImageRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if rec, ok := m.records[id]; ok {
		cc := *rec
		return &cc, nil
	}
	return nil, nil
}

func (m *MemoryStorage) ListImages(limit int) ([]*ImageRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	list := make([]*ImageRecord, 0, len(m.records))
	for i := len(m.order) - 1; i >= 0; i-- {
		cc := *m.records[m.order[i]]
		list = append(list, &cc)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
