package memory_test

import (
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/correlationtest"
	"github.com/karasusan/UnityCI/internal/app/memory"
	"testing"
)

func TestCorrelation(t *testing.T) {
	correlationtest.Run(t, func(t *testing.T) app.CorrelationRepo {
		return memory.NewCorrelation()
	})
}
