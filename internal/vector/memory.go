package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory brute-force index. Search cost is linear in
// the number of entries, which holds up well into the tens of thousands of
// chunks a single legal corpus produces.
type MemoryIndex struct {
	mu      sync.RWMutex
	dim     int
	ids     []string
	vectors [][]float32
	pos     map[string]int
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{
		dim: dim,
		pos: make(map[string]int),
	}
}

func (m *MemoryIndex) Add(_ context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range ids {
		vec := vectors[i]
		if len(vec) != m.dim {
			return fmt.Errorf("vector %s has dimension %d, index expects %d", id, len(vec), m.dim)
		}
		if at, ok := m.pos[id]; ok {
			m.vectors[at] = vec
			continue
		}
		m.pos[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), m.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*VectorResult, 0, len(m.ids))
	for i, vec := range m.vectors {
		results = append(results, &VectorResult{
			ID:    m.ids[i],
			Score: InnerProduct(query, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryIndex) Remove(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		at, ok := m.pos[id]
		if !ok {
			continue
		}
		last := len(m.ids) - 1
		if at != last {
			m.ids[at] = m.ids[last]
			m.vectors[at] = m.vectors[last]
			m.pos[m.ids[at]] = at
		}
		m.ids = m.ids[:last]
		m.vectors = m.vectors[:last]
		delete(m.pos, id)
	}
	return nil
}

// Save writes the index as a little-endian binary file:
// dim, count, then per entry an id-length-prefixed id and the raw vector.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	header := []uint32{uint32(m.dim), uint32(len(m.ids))}
	if err := binary.Write(f, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}

	for i, id := range m.ids {
		if err := binary.Write(f, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("failed to write id length: %w", err)
		}
		if _, err := f.Write([]byte(id)); err != nil {
			return fmt.Errorf("failed to write id: %w", err)
		}
		if _, err := f.Write(float32sToBytes(m.vectors[i])); err != nil {
			return fmt.Errorf("failed to write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with the file written by Save.
// The file's dimension must match the index's.
func (m *MemoryIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	var header [2]uint32
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read index header: %w", err)
	}
	dim, count := int(header[0]), int(header[1])
	if dim != m.dim {
		return fmt.Errorf("index file has dimension %d, index expects %d", dim, m.dim)
	}

	ids := make([]string, 0, count)
	vectors := make([][]float32, 0, count)
	pos := make(map[string]int, count)

	for i := 0; i < count; i++ {
		var idLen uint32
		if err := binary.Read(f, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("failed to read id length: %w", err)
		}
		idBuf := make([]byte, idLen)
		if _, err := io.ReadFull(f, idBuf); err != nil {
			return fmt.Errorf("failed to read id: %w", err)
		}

		vecBuf := make([]byte, 4*dim)
		if _, err := io.ReadFull(f, vecBuf); err != nil {
			return fmt.Errorf("failed to read vector: %w", err)
		}

		id := string(idBuf)
		pos[id] = len(ids)
		ids = append(ids, id)
		vectors = append(vectors, bytesToFloat32s(vecBuf))
	}

	m.mu.Lock()
	m.ids = ids
	m.vectors = vectors
	m.pos = pos
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

func (m *MemoryIndex) Close() error {
	return nil
}

func float32sToBytes(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func bytesToFloat32s(buf []byte) []float32 {
	vals := make([]float32, len(buf)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vals
}
