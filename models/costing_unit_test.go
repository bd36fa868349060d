package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestBomValue(t *testing.T) {
	if got := bomValue(nil); !got.IsZero() {
		t.Fatalf("empty BOM value = %s, want 0", got)
	}

	// 3 x steel @ 2.00
	lines := []costedLine{{Quantity: d("3"), UnitCost: d("2")}}
	if got := bomValue(lines); !got.Equal(d("6")) {
		t.Fatalf("BOM value = %s, want 6", got)
	}

	lines = append(lines, costedLine{Quantity: d("0.5"), UnitCost: d("10.50")})
	if got := bomValue(lines); !got.Equal(d("11.25")) {
		t.Fatalf("BOM value = %s, want 11.25", got)
	}
}

func TestTrueCost(t *testing.T) {
	// bracket: 3 x steel @ 2 + 1h @ 20/h = 26
	bracket := trueCost(bomValue([]costedLine{{Quantity: d("3"), UnitCost: d("2")}}), d("1"), d("20"))
	if !bracket.Equal(d("26")) {
		t.Fatalf("bracket cost = %s, want 26", bracket)
	}

	// frame: 2 x bracket @ 26 + 0.5h @ 20/h = 62
	frame := trueCost(bomValue([]costedLine{{Quantity: d("2"), UnitCost: bracket}}), d("0.5"), d("20"))
	if !frame.Equal(d("62")) {
		t.Fatalf("frame cost = %s, want 62", frame)
	}

	// raising steel to 3 pushes bracket to 29 and frame to 68
	bracket = trueCost(bomValue([]costedLine{{Quantity: d("3"), UnitCost: d("3")}}), d("1"), d("20"))
	if !bracket.Equal(d("29")) {
		t.Fatalf("bracket cost after steel change = %s, want 29", bracket)
	}
	frame = trueCost(bomValue([]costedLine{{Quantity: d("2"), UnitCost: bracket}}), d("0.5"), d("20"))
	if !frame.Equal(d("68")) {
		t.Fatalf("frame cost after steel change = %s, want 68", frame)
	}
}

func TestNextQuantity(t *testing.T) {
	cases := []struct {
		current string
		mvType  MovementType
		qty     string
		want    string
	}{
		{"10", MovementTypeIn, "5", "15"},
		{"10", MovementTypeOut, "15", "-5"},
		{"0", MovementTypeBuild, "3", "3"},
		{"3", MovementTypeUse, "1", "2"},
		{"7", MovementTypeAdjustment, "42", "42"},
		{"-5", MovementTypeAdjustment, "0", "0"},
	}
	for _, tc := range cases {
		got := nextQuantity(d(tc.current), tc.mvType, d(tc.qty))
		if !got.Equal(d(tc.want)) {
			t.Errorf("nextQuantity(%s, %s, %s) = %s, want %s", tc.current, tc.mvType, tc.qty, got, tc.want)
		}
	}
}

func TestReplayQuantityAdjustmentResetsBaseline(t *testing.T) {
	movements := []*Movement{
		{MovementType: MovementTypeIn, Quantity: d("10")},
		{MovementType: MovementTypeOut, Quantity: d("4")},
		{MovementType: MovementTypeAdjustment, Quantity: d("100")},
		{MovementType: MovementTypeOut, Quantity: d("30")},
	}
	if got := replayQuantity(movements); !got.Equal(d("70")) {
		t.Fatalf("replay = %s, want 70", got)
	}

	if got := replayQuantity(nil); !got.IsZero() {
		t.Fatalf("replay of empty ledger = %s, want 0", got)
	}
}

func TestSuggestedReplenishment(t *testing.T) {
	cases := []struct {
		min     string
		current string
		want    int64
	}{
		{"10", "4", 8},   // ceil(6*1.2)
		{"10", "10", 1},  // at threshold, clamp to 1
		{"0", "0", 1},    // untracked threshold, nothing on hand
		{"0", "-5", 6},   // ceil(5*1.2)
		{"5", "-5", 12},  // ceil(10*1.2)
		{"3", "2.5", 1},  // ceil(0.6) = 1
	}
	for _, tc := range cases {
		got := suggestedReplenishment(d(tc.min), d(tc.current))
		if got != tc.want {
			t.Errorf("suggestedReplenishment(%s, %s) = %d, want %d", tc.min, tc.current, got, tc.want)
		}
	}
}

func TestValidMovementForKind(t *testing.T) {
	valid := []struct {
		kind TargetKind
		mv   MovementType
	}{
		{TargetKindStockItem, MovementTypeIn},
		{TargetKindStockItem, MovementTypeOut},
		{TargetKindStockItem, MovementTypeAdjustment},
		{TargetKindComponent, MovementTypeBuild},
		{TargetKindComponent, MovementTypeUse},
		{TargetKindBuiltItem, MovementTypeAdjustment},
	}
	for _, tc := range valid {
		if !validMovementForKind(tc.kind, tc.mv) {
			t.Errorf("expected %s on %s to be valid", tc.mv, tc.kind)
		}
	}

	invalid := []struct {
		kind TargetKind
		mv   MovementType
	}{
		{TargetKindStockItem, MovementTypeBuild},
		{TargetKindStockItem, MovementTypeUse},
		{TargetKindComponent, MovementTypeIn},
		{TargetKindBuiltItem, MovementTypeOut},
	}
	for _, tc := range invalid {
		if validMovementForKind(tc.kind, tc.mv) {
			t.Errorf("expected %s on %s to be rejected", tc.mv, tc.kind)
		}
	}
}

func TestNewMovementValidate(t *testing.T) {
	// A negative delta is rejected.
	input := &NewMovement{
		TargetKind:   TargetKindStockItem,
		TargetId:     1,
		MovementType: MovementTypeOut,
		Quantity:     d("-3"),
	}
	if err := input.validate(); err == nil {
		t.Fatal("expected negative out quantity to be rejected")
	}

	// A stocktake may set a negative absolute balance.
	input.MovementType = MovementTypeAdjustment
	if err := input.validate(); err != nil {
		t.Fatalf("negative adjustment rejected: %v", err)
	}

	input.MovementType = MovementTypeBuild
	if err := input.validate(); err == nil {
		t.Fatal("expected build on stock_item to be rejected")
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseTargetKind("warehouse"); err == nil {
		t.Fatal("expected error for unknown target kind")
	}
	if _, err := ParseMovementType("teleport"); err == nil {
		t.Fatal("expected error for unknown movement type")
	}
	if _, err := ParseRecipeItemType("product"); err == nil {
		t.Fatal("expected error for unknown recipe item type")
	}
	if kind, err := ParseTargetKind("built_item"); err != nil || kind != TargetKindBuiltItem {
		t.Fatalf("ParseTargetKind(built_item) = %v, %v", kind, err)
	}
}

func TestTargetKindForRecipeItem(t *testing.T) {
	if got := targetKindForRecipeItem(RecipeItemRawMaterial); got != TargetKindStockItem {
		t.Fatalf("raw_material maps to %s", got)
	}
	if got := targetKindForRecipeItem(RecipeItemComponent); got != TargetKindComponent {
		t.Fatalf("component maps to %s", got)
	}
}
