package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/fieldentry/internal/client/models"
)

const (
	cacheService   = "fieldentry-cache"
	erpSystemsItem = "erpSystems"
)

// Systems lists the available ERP systems. The cached copy is shown first so
// the list appears instantly; when the backend is reachable the list is
// refreshed and the cache updated.
func (a *App) Systems(ctx context.Context) error {

	if cached := a.cachedSystems(ctx); len(cached) > 0 {
		a.printSystems(cached, "cached")
	}

	if n, err := a.submissions.PendingCount(ctx); err == nil && n > 0 {
		fmt.Fprintf(a.out, "%d submission(s) waiting for upload.\n", n)
	}

	if !a.isOnline() {
		return nil
	}

	systems, err := a.api.GetErpSystems(ctx)
	if err != nil {
		a.log.Error(ctx, "fetching ERP systems", "error", err)
		return err
	}

	if data, err := json.Marshal(systems); err == nil {
		if err := a.repos.Secure.Set(ctx, cacheService, erpSystemsItem, data); err != nil {
			a.log.Warn(ctx, "caching ERP systems", "error", err)
		}
	}

	a.printSystems(systems, "live")
	return nil
}

func (a *App) cachedSystems(ctx context.Context) []models.ErpSystem {
	data, err := a.repos.Secure.Get(ctx, cacheService, erpSystemsItem)
	if err != nil || data == nil {
		return nil
	}
	var systems []models.ErpSystem
	if err := json.Unmarshal(data, &systems); err != nil {
		a.log.Warn(ctx, "decoding cached ERP systems", "error", err)
		return nil
	}
	return systems
}

func (a *App) printSystems(systems []models.ErpSystem, origin string) {
	fmt.Fprintf(a.out, "ERP systems (%s):\n", origin)
	for _, s := range systems {
		fmt.Fprintf(a.out, "  %s  %s  (%d forms)\n", s.ID, s.Name, s.FormCount)
	}
}
