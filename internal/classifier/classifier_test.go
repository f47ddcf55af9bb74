package classifier

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

func TestClassifyByHeader_StandardNames(t *testing.T) {
	fc := ClassifyByHeader([]string{"Timestamp", "Open Price", "High", "Low", "Close", "Volume"})

	assert.Equal(t, map[Role]string{
		RoleDate:   "Timestamp",
		RoleOpen:   "Open Price",
		RoleHigh:   "High",
		RoleLow:    "Low",
		RoleClose:  "Close",
		RoleVolume: "Volume",
	}, fc.Mapping())
	assert.True(t, fc.Complete())
	assert.Empty(t, fc.Missing())
}

func TestClassifyByHeader_ShortNamesFallThrough(t *testing.T) {
	// "vol" also contains the open and low synonyms, both already taken
	fc := ClassifyByHeader([]string{"DT", "o", "h", "l", "c", "vol", "id"})

	assert.Equal(t, map[Role]string{
		RoleDate:   "DT",
		RoleOpen:   "o",
		RoleHigh:   "h",
		RoleLow:    "l",
		RoleClose:  "c",
		RoleVolume: "vol",
	}, fc.Mapping())
}

func TestClassifyByHeader_FirstColumnWins(t *testing.T) {
	fc := ClassifyByHeader([]string{"Date", "Open", "Open Interest", "High"})

	got, ok := fc.Get(RoleOpen)
	require.True(t, ok)
	assert.Equal(t, "Open", got)
	assert.False(t, fc.Complete())
	assert.Equal(t, []Role{RoleLow, RoleClose, RoleVolume}, fc.Missing())
}

func TestClassifyByHeader_SingleLetterSynonyms(t *testing.T) {
	// "close" contains "o" and fills the empty open slot first
	fc := ClassifyByHeader([]string{"close", "adj close", "date"})

	assert.Equal(t, map[Role]string{
		RoleDate: "date",
		RoleOpen: "close",
		RoleLow:  "adj close",
	}, fc.Mapping())
}

func TestClassifyByHeader_Idempotent(t *testing.T) {
	names := []string{"Date", "Open", "High", "Low", "Close", "Volume", "id"}
	assert.Equal(t, ClassifyByHeader(names), ClassifyByHeader(names))
}

func TestClassifyByHeader_NoMatches(t *testing.T) {
	fc := ClassifyByHeader([]string{"id", "ask", "bid"})
	assert.Empty(t, fc.Mapping())
	assert.Len(t, fc.Missing(), len(Roles))
}

func headerless() *table.Table {
	return table.MustNew(
		table.NewString("col_0", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"}),
		table.NewFloat("col_1", []float64{100, 101, 102, 103, 104, 105}),
		table.NewFloat("col_2", []float64{100, 104, 108, 112, 116, 120}),
		table.NewFloat("col_3", []float64{90, 93, 96, 99, 102, 105}),
		table.NewFloat("col_4", []float64{95, 97, 99, 101, 103, 105}),
		table.NewInt("col_5", []int64{1_000_000, 2_000_000, 1_500_000, 3_000_000, 2_500_000, 1_000_000}),
	)
}

func TestClassifyByStatistics_InfersOHLCV(t *testing.T) {
	fc := ClassifyByStatistics(headerless())

	assert.Equal(t, map[Role]string{
		RoleDate:   "col_0",
		RoleOpen:   "col_1",
		RoleHigh:   "col_2",
		RoleLow:    "col_3",
		RoleClose:  "col_4",
		RoleVolume: "col_5",
	}, fc.Mapping())
}

func TestClassifyByStatistics_TimeColumnIsDate(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(
		table.NewFloat("a", []float64{1, 2}),
		table.NewTime("b", []time.Time{day, day.Add(24 * time.Hour)}),
	)
	date, ok := ClassifyByStatistics(tbl).Get(RoleDate)
	require.True(t, ok)
	assert.Equal(t, "b", date)
}

func TestClassifyByStatistics_FlatVolumeIsNotVolume(t *testing.T) {
	tbl := table.MustNew(
		table.NewFloat("a", []float64{10, 12}),
		table.NewFloat("b", []float64{9, 9.5}),
		table.NewFloat("c", []float64{50_000, 50_000}),
	)
	fc := ClassifyByStatistics(tbl)

	_, ok := fc.Get(RoleVolume)
	assert.False(t, ok)
	// the flat column has zero range and ranks last
	closeCol, _ := fc.Get(RoleClose)
	assert.Equal(t, "c", closeCol)
}

func TestClassifyByStatistics_TiesBreakOnStddev(t *testing.T) {
	tbl := table.MustNew(
		table.NewFloat("a", []float64{0, 5, 5, 10}),
		table.NewFloat("b", []float64{0, 0, 10, 10}),
	)
	fc := ClassifyByStatistics(tbl)

	high, _ := fc.Get(RoleHigh)
	low, _ := fc.Get(RoleLow)
	assert.Equal(t, "b", high)
	assert.Equal(t, "a", low)
}

func TestClassifyByStatistics_Empty(t *testing.T) {
	assert.Empty(t, ClassifyByStatistics(table.MustNew()).Mapping())
	assert.Empty(t, ClassifyByStatistics(headerless().Slice(0, 0)).Mapping())
	assert.Empty(t, ClassifyByStatistics(nil).Mapping())
}

func TestClassifyByStatistics_AllNaNColumnIsSkipped(t *testing.T) {
	tbl := table.MustNew(
		table.NewFloat("nan", []float64{math.NaN(), math.NaN()}),
		table.NewFloat("x", []float64{1, 3}),
	)
	fc := ClassifyByStatistics(tbl)

	high, _ := fc.Get(RoleHigh)
	assert.Equal(t, "x", high)
	_, ok := fc.Get(RoleLow)
	assert.False(t, ok)
}

func TestClassify_Dispatch(t *testing.T) {
	tbl := headerless()
	assert.Equal(t, ClassifyByHeader(tbl.Names()), Classify(tbl, true))
	assert.Equal(t, ClassifyByStatistics(tbl), Classify(tbl, false))

	// col_N names only hit the single-letter synonyms
	var h Heuristic = HeaderHeuristic{}
	assert.False(t, h.Classify(tbl).Complete())
}

func TestCanonicalize(t *testing.T) {
	tbl := table.MustNew(
		table.NewString("DT", []string{"2024-01-01"}),
		table.NewFloat("o", []float64{1}),
		table.NewFloat("h", []float64{2}),
		table.NewFloat("l", []float64{0.5}),
		table.NewFloat("c", []float64{1.5}),
		table.NewFloat("vol", []float64{100}),
		table.NewString("id", []string{"x"}),
	)
	fc := ClassifyByHeader(tbl.Names())

	out, err := Canonicalize(tbl, fc)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "open", "high", "low", "close", "volume", "id"}, out.Names())
	assert.Equal(t, []string{"DT", "o", "h", "l", "c", "vol", "id"}, tbl.Names())

	again, err := Canonicalize(out, ClassifyByHeader(out.Names()))
	require.NoError(t, err)
	assert.Equal(t, out.Names(), again.Names())
}

func TestCanonicalize_Errors(t *testing.T) {
	tbl := table.MustNew(
		table.NewFloat("price", []float64{1}),
		table.NewFloat("close", []float64{1}),
	)
	name := "price"
	_, err := Canonicalize(tbl, FinancialColumns{Close: &name})
	assert.ErrorIs(t, err, table.ErrDuplicateColumn)

	missing := "nope"
	_, err = Canonicalize(tbl, FinancialColumns{Open: &missing})
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}
