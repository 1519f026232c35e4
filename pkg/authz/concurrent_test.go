package authz_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ConcurrentDecisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	principals := make([]string, 8)
	for i := range principals {
		principals[i] = fmt.Sprintf("u%d", i)
		f.assign(t, principals[i], "senior_agent")
	}

	var wg sync.WaitGroup
	for _, principalID := range principals {
		for n := 0; n < 8; n++ {
			wg.Add(1)
			go func(pid string) {
				defer wg.Done()
				ok, err := f.svc.HasPermission(ctx, pid, "policies.approve")
				assert.NoError(t, err)
				assert.True(t, ok)

				ok, err = f.svc.HasPermission(ctx, pid, "agents.read")
				assert.NoError(t, err)
				assert.False(t, ok)
			}(principalID)
		}
	}
	wg.Wait()
}

func TestService_ConcurrentMutationAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "u1", "junior_agent")

	var wg sync.WaitGroup

	// Readers race with a writer promoting other principals; the reader's
	// own principal must stay consistent throughout.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			pid := fmt.Sprintf("w%d", i)
			_, err := f.svc.AssignRole(ctx, pid, "regional_manager", "admin-1")
			assert.NoError(t, err)
		}
	}()

	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ok, err := f.svc.HasPermission(ctx, "u1", "policies.create")
				assert.NoError(t, err)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()

	// All writer mutations landed.
	for i := 0; i < 20; i++ {
		ok, err := f.svc.HasPermission(ctx, fmt.Sprintf("w%d", i), "policies.delete")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
