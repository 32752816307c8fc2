package cache

import (
	"time"

	"github.com/gofiber/storage/memory/v2"
)

const memoryGCInterval = 10 * time.Second

// NewMemoryStore keeps rendered pages in process. Expired entries are swept
// every memoryGCInterval and are never returned after their deadline.
func NewMemoryStore() *memory.Storage {
	return memory.New(memory.Config{GCInterval: memoryGCInterval})
}
