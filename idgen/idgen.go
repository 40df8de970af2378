// Package idgen provides the ID generators used to label events, timers and
// recordings.
package idgen

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

var idGeneratorMutex sync.Mutex
var idGeneratorInstantiated bool
var idGenerator Generator

// Generator can generate IDs.
type Generator interface {
	// Generate an ID
	Generate() string
}

// NewSequential returns a generator whose first emitted ID is "1".
func NewSequential() Generator {
	return &sequentialGenerator{}
}

// NewParallel returns a generator backed by globally unique xids. The IDs are
// not deterministic.
func NewParallel() Generator {
	return parallelGenerator{}
}

// UseSequentialIDGenerator configures the process-wide generator to generate
// IDs in sequence.
func UseSequentialIDGenerator() {
	use(NewSequential())
}

// UseParallelIDGenerator configures the process-wide generator to generate
// xids.
func UseParallelIDGenerator() {
	use(NewParallel())
}

func use(g Generator) {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	if idGeneratorInstantiated {
		log.Panic("cannot change id generator type after using it")
	}

	idGenerator = g
	idGeneratorInstantiated = true
}

// GetIDGenerator returns the process-wide ID generator. The sequential
// generator is used if none has been configured.
func GetIDGenerator() Generator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	if !idGeneratorInstantiated {
		idGenerator = NewSequential()
		idGeneratorInstantiated = true
	}

	return idGenerator
}

type sequentialGenerator struct {
	nextID uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	return strconv.FormatUint(idNumber, 10)
}

type parallelGenerator struct{}

func (parallelGenerator) Generate() string {
	return xid.New().String()
}
