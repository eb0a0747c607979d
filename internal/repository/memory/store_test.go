package memory_test

import (
	"testing"

	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/repository/memory"
	"github.com/kirinyoku/canteen-go/internal/repository/repotest"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		return memory.NewStore()
	})
}
