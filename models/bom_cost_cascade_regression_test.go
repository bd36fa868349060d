package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/mkitchen-fabworks/production_backend/models"
	"github.com/mkitchen-fabworks/production_backend/utils"
	"github.com/shopspring/decimal"
)

// setupIntegrationEnv starts throwaway redis + mysql containers, wires env
// for config.Connect* helpers, connects and migrates a fresh schema.
func setupIntegrationEnv(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "production_test")
	t.Setenv("NEGATIVE_STOCK_POLICY", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	return context.Background()
}

func TestStockItemCostChangeCascadesToBomParents(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	if err := models.SetLabourRate(ctx, decimal.NewFromInt(20)); err != nil {
		t.Fatalf("SetLabourRate: %v", err)
	}

	steel, err := models.CreateStockItem(ctx, &models.NewStockItem{
		Name:           "Steel Rod",
		Unit:           "m",
		CostPerUnitGbp: decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}

	// bracket = 3 x steel + 1h labour
	bracket, err := models.CreateComponent(ctx, &models.NewComponent{
		Name:        "Bracket",
		LabourHours: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}
	if _, err := models.AddComponentBOMEdge(ctx, bracket.ID, &models.NewComponentBOMEdge{
		StockItemId: steel.ID,
		Quantity:    decimal.NewFromInt(3),
		Unit:        "m",
	}); err != nil {
		t.Fatalf("AddComponentBOMEdge: %v", err)
	}
	bracket, err = models.GetComponent(ctx, bracket.ID)
	if err != nil {
		t.Fatalf("GetComponent: %v", err)
	}
	if bracket.CostGbp.Cmp(decimal.NewFromInt(26)) != 0 {
		t.Fatalf("expected bracket cost 26 (3x2 + 1x20); got %s", bracket.CostGbp)
	}

	// frame = 2 x bracket + 0.5h labour
	frame, err := models.CreateBuiltItem(ctx, &models.NewBuiltItem{
		Name:        "Frame",
		LabourHours: decimal.NewFromFloat(0.5),
	})
	if err != nil {
		t.Fatalf("CreateBuiltItem: %v", err)
	}
	if _, err := models.AddBuiltItemBOMEdge(ctx, frame.ID, &models.NewBuiltItemBOMEdge{
		ItemType: models.RecipeItemComponent,
		ItemId:   bracket.ID,
		Quantity: decimal.NewFromInt(2),
	}); err != nil {
		t.Fatalf("AddBuiltItemBOMEdge: %v", err)
	}
	frame, err = models.GetBuiltItem(ctx, frame.ID)
	if err != nil {
		t.Fatalf("GetBuiltItem: %v", err)
	}
	if frame.CostGbp.Cmp(decimal.NewFromInt(62)) != 0 {
		t.Fatalf("expected frame cost 62 (2x26 + 0.5x20); got %s", frame.CostGbp)
	}

	// Priced recipe lines resolve the ingredient name and current unit cost.
	bracketBOM, err := models.GetBOM(ctx, "component", bracket.ID)
	if err != nil {
		t.Fatalf("GetBOM(component): %v", err)
	}
	if len(bracketBOM) != 1 {
		t.Fatalf("expected 1 bracket BOM line; got %d", len(bracketBOM))
	}
	if bracketBOM[0].Name != "Steel Rod" || bracketBOM[0].ItemType != models.RecipeItemRawMaterial {
		t.Fatalf("unexpected bracket BOM line: %+v", bracketBOM[0])
	}
	if bracketBOM[0].UnitCost.Cmp(decimal.NewFromInt(2)) != 0 || bracketBOM[0].LineCost.Cmp(decimal.NewFromInt(6)) != 0 {
		t.Fatalf("expected bracket line 3 x 2 = 6; got unit %s line %s", bracketBOM[0].UnitCost, bracketBOM[0].LineCost)
	}
	frameBOM, err := models.GetBOM(ctx, "built_item", frame.ID)
	if err != nil {
		t.Fatalf("GetBOM(built_item): %v", err)
	}
	if len(frameBOM) != 1 {
		t.Fatalf("expected 1 frame BOM line; got %d", len(frameBOM))
	}
	if frameBOM[0].Name != "Bracket" || frameBOM[0].ItemType != models.RecipeItemComponent {
		t.Fatalf("unexpected frame BOM line: %+v", frameBOM[0])
	}
	if frameBOM[0].UnitCost.Cmp(decimal.NewFromInt(26)) != 0 || frameBOM[0].LineCost.Cmp(decimal.NewFromInt(52)) != 0 {
		t.Fatalf("expected frame line 2 x 26 = 52; got unit %s line %s", frameBOM[0].UnitCost, frameBOM[0].LineCost)
	}

	// product = 1 x frame
	workbench, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Workbench"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if _, err := models.AddProductComponentEdge(ctx, workbench.ID, &models.NewProductComponentEdge{
		ComponentType: models.RecipeItemBuiltItem,
		ComponentId:   frame.ID,
		Quantity:      decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("AddProductComponentEdge: %v", err)
	}
	workbench, err = models.GetProduct(ctx, workbench.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if workbench.CostGbp.Cmp(decimal.NewFromInt(62)) != 0 {
		t.Fatalf("expected product cost 62; got %s", workbench.CostGbp)
	}
	workbenchBOM, err := models.GetBOM(ctx, "product", workbench.ID)
	if err != nil {
		t.Fatalf("GetBOM(product): %v", err)
	}
	if len(workbenchBOM) != 1 || workbenchBOM[0].Name != "Frame" || workbenchBOM[0].LineCost.Cmp(decimal.NewFromInt(62)) != 0 {
		t.Fatalf("unexpected product BOM lines: %+v", workbenchBOM)
	}

	// Raising steel to 3 must push bracket to 29, frame to 68 and the
	// product to 68 without any manual recompute call.
	if _, err := models.UpdateStockItem(ctx, steel.ID, &models.NewStockItem{
		Name:           "Steel Rod",
		Unit:           "m",
		CostPerUnitGbp: decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("UpdateStockItem: %v", err)
	}
	bracket, _ = models.GetComponent(ctx, bracket.ID)
	frame, _ = models.GetBuiltItem(ctx, frame.ID)
	workbench, _ = models.GetProduct(ctx, workbench.ID)
	if bracket.CostGbp.Cmp(decimal.NewFromInt(29)) != 0 {
		t.Fatalf("after steel change: expected bracket 29; got %s", bracket.CostGbp)
	}
	if frame.CostGbp.Cmp(decimal.NewFromInt(68)) != 0 {
		t.Fatalf("after steel change: expected frame 68; got %s", frame.CostGbp)
	}
	if workbench.CostGbp.Cmp(decimal.NewFromInt(68)) != 0 {
		t.Fatalf("after steel change: expected product 68; got %s", workbench.CostGbp)
	}

	// Changing the labour rate recomputes everything carrying labour.
	// bracket = 9 + 25 = 34; frame = 2x34 + 12.5 = 80.5
	if err := models.SetLabourRate(ctx, decimal.NewFromInt(25)); err != nil {
		t.Fatalf("SetLabourRate(25): %v", err)
	}
	bracket, _ = models.GetComponent(ctx, bracket.ID)
	frame, _ = models.GetBuiltItem(ctx, frame.ID)
	workbench, _ = models.GetProduct(ctx, workbench.ID)
	if bracket.CostGbp.Cmp(decimal.NewFromInt(34)) != 0 {
		t.Fatalf("after rate change: expected bracket 34; got %s", bracket.CostGbp)
	}
	if frame.CostGbp.Cmp(decimal.NewFromFloat(80.5)) != 0 {
		t.Fatalf("after rate change: expected frame 80.5; got %s", frame.CostGbp)
	}
	if workbench.CostGbp.Cmp(decimal.NewFromFloat(80.5)) != 0 {
		t.Fatalf("after rate change: expected product 80.5; got %s", workbench.CostGbp)
	}
	if bracket.CostStale || frame.CostStale {
		t.Fatalf("expected no stale costs after rate change sweep")
	}
	stale, err := models.StaleCostCount(ctx)
	if err != nil {
		t.Fatalf("StaleCostCount: %v", err)
	}
	if stale != 0 {
		t.Fatalf("expected 0 stale costs; got %d", stale)
	}

	// Recompute is idempotent: same inputs, same persisted cost.
	again, err := models.RecomputeComponentCost(ctx, bracket.ID)
	if err != nil {
		t.Fatalf("RecomputeComponentCost: %v", err)
	}
	if again.CostGbp.Cmp(bracket.CostGbp) != 0 {
		t.Fatalf("recompute not idempotent: %s vs %s", again.CostGbp, bracket.CostGbp)
	}
}

func TestBuildMovementDeductsRecipeIngredientsOnce(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	rawA, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Raw A", Unit: "pcs"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	compB, err := models.CreateComponent(ctx, &models.NewComponent{Name: "Comp B"})
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}
	frame, err := models.CreateBuiltItem(ctx, &models.NewBuiltItem{Name: "Frame"})
	if err != nil {
		t.Fatalf("CreateBuiltItem: %v", err)
	}
	// frame recipe: 2 x rawA, 1 x compB
	if _, err := models.AddBuiltItemBOMEdge(ctx, frame.ID, &models.NewBuiltItemBOMEdge{
		ItemType: models.RecipeItemRawMaterial,
		ItemId:   rawA.ID,
		Quantity: decimal.NewFromInt(2),
	}); err != nil {
		t.Fatalf("AddBuiltItemBOMEdge(rawA): %v", err)
	}
	if _, err := models.AddBuiltItemBOMEdge(ctx, frame.ID, &models.NewBuiltItemBOMEdge{
		ItemType: models.RecipeItemComponent,
		ItemId:   compB.ID,
		Quantity: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("AddBuiltItemBOMEdge(compB): %v", err)
	}

	// Seed stock.
	if _, _, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     rawA.ID,
		MovementType: models.MovementTypeIn,
		Quantity:     decimal.NewFromInt(100),
	}); err != nil {
		t.Fatalf("RecordMovement(in rawA): %v", err)
	}
	if _, _, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindComponent,
		TargetId:     compB.ID,
		MovementType: models.MovementTypeAdjustment,
		Quantity:     decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("RecordMovement(adjust compB): %v", err)
	}

	// Build 5 frames: expect exactly one out of 10 rawA and one use of 5 compB.
	build, warnings, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindBuiltItem,
		TargetId:     frame.ID,
		MovementType: models.MovementTypeBuild,
		Quantity:     decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("RecordMovement(build): %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}

	buildRef := fmt.Sprintf("build:%s:%d", models.TargetKindBuiltItem, build.ID)

	rawMovements, err := models.GetMovements(ctx, models.TargetKindStockItem, rawA.ID)
	if err != nil {
		t.Fatalf("GetMovements(rawA): %v", err)
	}
	var deductions []*models.Movement
	for _, m := range rawMovements {
		if m.Reference == buildRef {
			deductions = append(deductions, m)
		}
	}
	if len(deductions) != 1 {
		t.Fatalf("expected exactly 1 deduction movement for rawA; got %d", len(deductions))
	}
	if deductions[0].MovementType != models.MovementTypeOut || deductions[0].Quantity.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("expected out of 10 for rawA; got %s %s", deductions[0].MovementType, deductions[0].Quantity)
	}
	if deductions[0].CorrelationId == "" || deductions[0].CorrelationId != build.CorrelationId {
		t.Fatalf("deduction correlation id %q does not match build %q", deductions[0].CorrelationId, build.CorrelationId)
	}

	compMovements, err := models.GetMovements(ctx, models.TargetKindComponent, compB.ID)
	if err != nil {
		t.Fatalf("GetMovements(compB): %v", err)
	}
	deductions = nil
	for _, m := range compMovements {
		if m.Reference == buildRef {
			deductions = append(deductions, m)
		}
	}
	if len(deductions) != 1 {
		t.Fatalf("expected exactly 1 deduction movement for compB; got %d", len(deductions))
	}
	if deductions[0].MovementType != models.MovementTypeUse || deductions[0].Quantity.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("expected use of 5 for compB; got %s %s", deductions[0].MovementType, deductions[0].Quantity)
	}

	// Cached quantities reflect the deductions.
	rawA, _ = models.GetStockItem(ctx, rawA.ID)
	compB, _ = models.GetComponent(ctx, compB.ID)
	frame, _ = models.GetBuiltItem(ctx, frame.ID)
	if rawA.CurrentQuantity.Cmp(decimal.NewFromInt(90)) != 0 {
		t.Fatalf("expected rawA quantity 90; got %s", rawA.CurrentQuantity)
	}
	if compB.BuiltQuantity.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("expected compB quantity 5; got %s", compB.BuiltQuantity)
	}
	if frame.BuiltQuantity.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("expected frame quantity 5; got %s", frame.BuiltQuantity)
	}

	// Full replay from the ledger must land on the same cached values.
	if err := models.RebuildCachedQuantities(ctx); err != nil {
		t.Fatalf("RebuildCachedQuantities: %v", err)
	}
	rawA2, _ := models.GetStockItem(ctx, rawA.ID)
	if rawA2.CurrentQuantity.Cmp(rawA.CurrentQuantity) != 0 {
		t.Fatalf("replay disagrees with cache for rawA: %s vs %s", rawA2.CurrentQuantity, rawA.CurrentQuantity)
	}
}

func TestNegativeStockPolicy(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	bolt, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Bolt", Unit: "pcs"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	if _, _, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     bolt.ID,
		MovementType: models.MovementTypeIn,
		Quantity:     decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("RecordMovement(in): %v", err)
	}

	// Default policy: the write goes through and a warning is surfaced.
	_, warnings, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     bolt.ID,
		MovementType: models.MovementTypeOut,
		Quantity:     decimal.NewFromInt(15),
	})
	if err != nil {
		t.Fatalf("RecordMovement(out 15): %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 negative stock warning; got %d", len(warnings))
	}
	if warnings[0].TargetId != bolt.ID || warnings[0].Quantity.Cmp(decimal.NewFromInt(-5)) != 0 {
		t.Fatalf("unexpected warning payload: %+v", warnings[0])
	}
	bolt, _ = models.GetStockItem(ctx, bolt.ID)
	if bolt.CurrentQuantity.Cmp(decimal.NewFromInt(-5)) != 0 {
		t.Fatalf("expected quantity -5; got %s", bolt.CurrentQuantity)
	}

	// Reject policy blocks the write and leaves the ledger untouched.
	t.Setenv("NEGATIVE_STOCK_POLICY", "reject")
	_, _, err = models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     bolt.ID,
		MovementType: models.MovementTypeOut,
		Quantity:     decimal.NewFromInt(1),
	})
	if !errors.Is(err, utils.ErrorInsufficientStock) {
		t.Fatalf("expected ErrorInsufficientStock; got %v", err)
	}
	bolt, _ = models.GetStockItem(ctx, bolt.ID)
	if bolt.CurrentQuantity.Cmp(decimal.NewFromInt(-5)) != 0 {
		t.Fatalf("rejected movement must not change quantity; got %s", bolt.CurrentQuantity)
	}
	movements, err := models.GetMovements(ctx, models.TargetKindStockItem, bolt.ID)
	if err != nil {
		t.Fatalf("GetMovements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 ledger rows after rejection; got %d", len(movements))
	}
}

func TestAdjustmentSetsAbsoluteQuantity(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	washer, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Washer", Unit: "pcs"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	if _, _, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     washer.ID,
		MovementType: models.MovementTypeIn,
		Quantity:     decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("RecordMovement(in): %v", err)
	}
	if _, _, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     washer.ID,
		MovementType: models.MovementTypeAdjustment,
		Quantity:     decimal.NewFromInt(42),
		Reference:    "stocktake 2026-08",
	}); err != nil {
		t.Fatalf("RecordMovement(adjustment): %v", err)
	}

	washer, _ = models.GetStockItem(ctx, washer.ID)
	if washer.CurrentQuantity.Cmp(decimal.NewFromInt(42)) != 0 {
		t.Fatalf("expected quantity 42 after adjustment; got %s", washer.CurrentQuantity)
	}

	// The adjustment is a replay baseline: a rebuild lands on 42, not 52.
	if err := models.RebuildCachedQuantities(ctx); err != nil {
		t.Fatalf("RebuildCachedQuantities: %v", err)
	}
	washer, _ = models.GetStockItem(ctx, washer.ID)
	if washer.CurrentQuantity.Cmp(decimal.NewFromInt(42)) != 0 {
		t.Fatalf("expected quantity 42 after replay; got %s", washer.CurrentQuantity)
	}

	// A stocktake may record a negative observed balance; the write succeeds
	// and surfaces a warning under the default policy.
	_, warnings, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     washer.ID,
		MovementType: models.MovementTypeAdjustment,
		Quantity:     decimal.NewFromInt(-3),
		Reference:    "stocktake correction",
	})
	if err != nil {
		t.Fatalf("RecordMovement(adjustment -3): %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for negative stocktake; got %d", len(warnings))
	}
	washer, _ = models.GetStockItem(ctx, washer.ID)
	if washer.CurrentQuantity.Cmp(decimal.NewFromInt(-3)) != 0 {
		t.Fatalf("expected quantity -3 after negative adjustment; got %s", washer.CurrentQuantity)
	}
}

func TestDeleteStockItemInUseRejected(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	steel, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Steel", Unit: "m"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	bracket, err := models.CreateComponent(ctx, &models.NewComponent{Name: "Bracket"})
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}
	edge, err := models.AddComponentBOMEdge(ctx, bracket.ID, &models.NewComponentBOMEdge{
		StockItemId: steel.ID,
		Quantity:    decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("AddComponentBOMEdge: %v", err)
	}

	if _, err := models.DeleteStockItem(ctx, steel.ID); !errors.Is(err, utils.ErrorEntityInUse) {
		t.Fatalf("expected ErrorEntityInUse; got %v", err)
	}

	// After removing the referencing edge the delete goes through.
	if _, err := models.RemoveComponentBOMEdge(ctx, edge.ID); err != nil {
		t.Fatalf("RemoveComponentBOMEdge: %v", err)
	}
	if _, err := models.DeleteStockItem(ctx, steel.ID); err != nil {
		t.Fatalf("DeleteStockItem after edge removal: %v", err)
	}
	if _, err := models.GetStockItem(ctx, steel.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound; got %v", err)
	}

	// Ledger history also pins an entity: movements are never deleted, so an
	// item that has any cannot be removed and its rows survive the attempt.
	offcut, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Offcut", Unit: "kg"})
	if err != nil {
		t.Fatalf("CreateStockItem(offcut): %v", err)
	}
	if _, _, err := models.RecordMovement(ctx, &models.NewMovement{
		TargetKind:   models.TargetKindStockItem,
		TargetId:     offcut.ID,
		MovementType: models.MovementTypeIn,
		Quantity:     decimal.NewFromInt(4),
	}); err != nil {
		t.Fatalf("RecordMovement(in offcut): %v", err)
	}
	if _, err := models.DeleteStockItem(ctx, offcut.ID); !errors.Is(err, utils.ErrorEntityInUse) {
		t.Fatalf("expected ErrorEntityInUse for item with ledger history; got %v", err)
	}
	movements, err := models.GetMovements(ctx, models.TargetKindStockItem, offcut.ID)
	if err != nil {
		t.Fatalf("GetMovements(offcut): %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected ledger history to survive rejected delete; got %d rows", len(movements))
	}
}

func TestBuiltItemRecipeRejectsBuiltItemIngredient(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	frame, err := models.CreateBuiltItem(ctx, &models.NewBuiltItem{Name: "Frame"})
	if err != nil {
		t.Fatalf("CreateBuiltItem(frame): %v", err)
	}
	door, err := models.CreateBuiltItem(ctx, &models.NewBuiltItem{Name: "Door"})
	if err != nil {
		t.Fatalf("CreateBuiltItem(door): %v", err)
	}

	_, err = models.AddBuiltItemBOMEdge(ctx, frame.ID, &models.NewBuiltItemBOMEdge{
		ItemType: models.RecipeItemBuiltItem,
		ItemId:   door.ID,
		Quantity: decimal.NewFromInt(1),
	})
	if !errors.Is(err, utils.ErrorInvalidRecipeKind) {
		t.Fatalf("expected ErrorInvalidRecipeKind; got %v", err)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("production-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("production-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=production_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
