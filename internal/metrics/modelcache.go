package metrics

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// ICacheConfig sizes the modeled instruction cache.
type ICacheConfig struct {
	Size          int
	Associativity int
	BlockSize     int
}

// DefaultICacheConfig models a generic 32KB 8-way L1i with 64-byte lines.
func DefaultICacheConfig() ICacheConfig {
	return ICacheConfig{
		Size:          32 * 1024,
		Associativity: 8,
		BlockSize:     64,
	}
}

// ICacheModel is a tag-only instruction-cache model over the translated
// code's guest addresses. It tracks hits and misses through an Akita cache
// directory with LRU replacement; no data is stored, since only locality of
// the block layout is of interest.
type ICacheModel struct {
	config    ICacheConfig
	directory *akitacache.DirectoryImpl

	hits   uint64
	misses uint64
}

// NewICacheModel builds the directory for config.
func NewICacheModel(config ICacheConfig) *ICacheModel {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	return &ICacheModel{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Touch records one instruction fetch at addr and reports whether it hit.
func (m *ICacheModel) Touch(addr uint64) bool {
	blockAddr := (addr / uint64(m.config.BlockSize)) * uint64(m.config.BlockSize)

	block := m.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		m.hits++
		m.directory.Visit(block)
		return true
	}

	m.misses++
	victim := m.directory.FindVictim(blockAddr)
	if victim != nil {
		victim.Tag = blockAddr
		victim.IsValid = true
		m.directory.Visit(victim)
	}
	return false
}

// HitRate returns hits/(hits+misses), 0 before any access.
func (m *ICacheModel) HitRate() float64 {
	total := m.hits + m.misses
	if total == 0 {
		return 0
	}
	return float64(m.hits) / float64(total)
}

// Reset clears the directory and counters.
func (m *ICacheModel) Reset() {
	m.directory.Reset()
	m.hits = 0
	m.misses = 0
}
