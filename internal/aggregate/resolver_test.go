package aggregate

import (
	"testing"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
)

func record(id int64, rawName string, mutate ...func(*db.ProductLineRecord)) db.ProductLineRecord {
	rec := db.ProductLineRecord{
		RecordID: id,
		RawName:  rawName,
	}
	for _, fn := range mutate {
		fn(&rec)
	}
	return rec
}

func withExternalID(id string) func(*db.ProductLineRecord) {
	return func(rec *db.ProductLineRecord) {
		rec.ExternalID = &id
	}
}

func withCanonicalName(name string) func(*db.ProductLineRecord) {
	return func(rec *db.ProductLineRecord) {
		rec.CanonicalName = &name
	}
}

func withMetrics(clicks, addToCart, orders, itemsSold int, revenue float64) func(*db.ProductLineRecord) {
	return func(rec *db.ProductLineRecord) {
		rec.Clicks = clicks
		rec.AddToCart = addToCart
		rec.Orders = orders
		rec.ItemsSold = itemsSold
		rec.Revenue = revenue
	}
}

func TestResolve_SharedExternalIDAlwaysOneGroup(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Fone Bluetooth XYZ Pro Max Edição Especial", withExternalID("SKU-1")),
		record(2, "Produto totalmente diferente", withExternalID("SKU-1")),
		record(3, "Outro nome sem relação alguma", withExternalID("SKU-1")),
	})

	if len(groups) != 1 {
		t.Fatalf("expected one group for shared external id, got %d", len(groups))
	}
	if groups[0].Appearances != 3 {
		t.Fatalf("expected 3 appearances, got %d", groups[0].Appearances)
	}
}

func TestResolve_DifferingExternalIDsNeverMerge(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Luminária Repolho Silicone Fofo LED USB", withExternalID("SKU-1")),
		record(2, "Luminária Repolho Silicone LED USB", withExternalID("SKU-2")),
	})

	if len(groups) != 2 {
		t.Fatalf("expected two groups for differing external ids, got %d", len(groups))
	}
}

func TestResolve_NearDuplicateNamesMerge(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Luminária Repolho Silicone Fofo LED USB", withMetrics(10, 0, 2, 0, 59.80)),
		record(2, "Luminária Repolho Silicone LED USB", withMetrics(5, 0, 1, 0, 29.90)),
	})

	if len(groups) != 1 {
		t.Fatalf("expected near-duplicate names to merge, got %d groups", len(groups))
	}
	g := groups[0]
	if g.Clicks != 15 || g.Orders != 3 {
		t.Fatalf("unexpected summed metrics: clicks=%d orders=%d", g.Clicks, g.Orders)
	}
	// The shorter spelling wins the display name.
	if g.DisplayName != "Luminária Repolho Silicone LED USB" {
		t.Fatalf("unexpected display name: %q", g.DisplayName)
	}
}

func TestResolve_DistinctProductsStaySeparate(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Caixa Som BT 1200mAh 10W"),
		record(2, "Caixa Som BT Philips 1300W"),
	})

	if len(groups) != 2 {
		t.Fatalf("expected distinct products to stay separate, got %d groups", len(groups))
	}
}

func TestResolve_LongPrefixTruncationMerges(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Kit Organizador De Gavetas Multiuso Transparente Com Divisórias"),
		record(2, "Kit Organizador De Gavetas Multiuso"),
	})

	if len(groups) != 1 {
		t.Fatalf("expected truncated re-entry to merge by prefix, got %d groups", len(groups))
	}
}

func TestResolve_FirstMatchingGroupWins(t *testing.T) {
	t.Parallel()

	// Both variants qualify against the seed group, so the scan stops there
	// instead of seeding per-voltage groups and searching for a best fit.
	groups := Resolve([]db.ProductLineRecord{
		record(1, "Escova Alisadora Cerâmica Profissional Bivolt"),
		record(2, "Escova Alisadora Cerâmica Profissional Bivolt 127V"),
		record(3, "Escova Alisadora Cerâmica Profissional Bivolt 220V"),
	})

	if len(groups) != 1 {
		t.Fatalf("expected all variants to fold into the first group, got %d", len(groups))
	}
	if groups[0].Appearances != 3 {
		t.Fatalf("expected 3 appearances in first group, got %d", groups[0].Appearances)
	}
}

func TestResolve_CanonicalNameGroupsExactly(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Luminária Repolho Silicone Fofo LED USB", withCanonicalName("Luminária Repolho LED"), withMetrics(10, 0, 2, 0, 59.80)),
		record(2, "Luminária Repolho Silicone LED USB", withCanonicalName("Luminária Repolho LED"), withMetrics(5, 0, 1, 0, 29.90)),
		record(3, "Luminária de mesa articulada", withMetrics(1, 0, 0, 0, 0)),
	})

	if len(groups) != 2 {
		t.Fatalf("expected canonical group plus one heuristic group, got %d", len(groups))
	}
	canonical := groups[0]
	if canonical.DisplayName != "Luminária Repolho LED" {
		t.Fatalf("expected canonical display name, got %q", canonical.DisplayName)
	}
	if canonical.Clicks != 15 || canonical.Orders != 3 || canonical.Appearances != 2 {
		t.Fatalf("unexpected canonical group totals: %+v", canonical)
	}
}

func TestResolve_ConservationOfMetrics(t *testing.T) {
	t.Parallel()

	records := []db.ProductLineRecord{
		record(1, "Luminária Repolho Silicone Fofo LED USB", withMetrics(10, 3, 2, 2, 59.80)),
		record(2, "Luminária Repolho Silicone LED USB", withMetrics(5, 1, 1, 1, 29.90)),
		record(3, "Caixa Som BT 1200mAh 10W", withMetrics(7, 2, 1, 1, 39.90)),
		record(4, "Caixa Som BT Philips 1300W", withMetrics(2, 0, 0, 0, 0)),
		record(5, "Produto Completamente Distinto", withExternalID("SKU-9"), withMetrics(4, 1, 1, 1, 12.50)),
	}
	groups := Resolve(records)

	var wantClicks, wantOrders, gotClicks, gotOrders, gotAppearances int
	var wantRevenue, gotRevenue float64
	for _, rec := range records {
		wantClicks += rec.Clicks
		wantOrders += rec.Orders
		wantRevenue += rec.Revenue
	}
	for _, g := range groups {
		gotClicks += g.Clicks
		gotOrders += g.Orders
		gotRevenue += g.Revenue
		gotAppearances += g.Appearances
	}

	if gotClicks != wantClicks || gotOrders != wantOrders {
		t.Fatalf("metric totals not conserved: clicks %d != %d, orders %d != %d", gotClicks, wantClicks, gotOrders, wantOrders)
	}
	if gotRevenue != wantRevenue {
		t.Fatalf("revenue not conserved: %f != %f", gotRevenue, wantRevenue)
	}
	if gotAppearances != len(records) {
		t.Fatalf("appearances %d != record count %d", gotAppearances, len(records))
	}
}

func TestResolve_ExternalIDAdoptedFromFirstNonNull(t *testing.T) {
	t.Parallel()

	groups := Resolve([]db.ProductLineRecord{
		record(1, "Luminária Repolho Silicone Fofo LED USB"),
		record(2, "Luminária Repolho Silicone LED USB", withExternalID("SKU-7")),
	})

	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups[0].ExternalID == nil || *groups[0].ExternalID != "SKU-7" {
		t.Fatalf("expected group to adopt SKU-7, got %v", groups[0].ExternalID)
	}
}
