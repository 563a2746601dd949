package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metasql/internal/ir"
)

// stubSub is a Subquery with fixed text.
type stubSub struct {
	sql   string
	isSel bool
}

func (s stubSub) IsSelect() bool            { return s.isSel }
func (s stubSub) Fragment() (string, error) { return s.sql, nil }

func TestStatementsSealed(t *testing.T) {
	tests := []struct {
		stmt Statement
		op   Operation
	}{
		{&Select{}, OpSelect},
		{&Insert{}, OpInsert},
		{&Update{}, OpUpdate},
		{&Delete{}, OpDelete},
		{&CreateTable{}, OpCreateTable},
		{&AlterTable{}, OpAlterTable},
		{&TruncateTable{}, OpTruncateTable},
		{&DropTable{}, OpDropTable},
		{&CreateView{}, OpCreateView},
		{&DropView{}, OpDropView},
		{&CheckTable{}, OpCheckTable},
		{&Custom{}, OpCustom},
	}
	for _, tc := range tests {
		t.Run(tc.op.String(), func(t *testing.T) {
			assert.Equal(t, tc.op, tc.stmt.Operation())
		})
	}
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "SELECT", OpSelect.String())
	assert.Equal(t, "CREATE VIEW", OpCreateView.String())
	assert.Equal(t, "UNKNOWN", Operation(99).String())
}

func TestSelectOffset(t *testing.T) {
	tests := []struct {
		name    string
		perPage int
		page    int
		want    int
	}{
		{"third page", 20, 3, 40},
		{"first page", 20, 1, 0},
		{"page zero clamps to one", 20, 0, 0},
		{"negative page clamps to one", 20, -5, 0},
		{"pagination off", 0, 7, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &Select{PerPage: tc.perPage, Page: tc.page}
			assert.Equal(t, tc.want, s.Offset())
		})
	}
}

func TestParseJoinType(t *testing.T) {
	tests := map[string]JoinType{
		"":                    JoinNone,
		"i":                   JoinInner,
		"inner":               JoinInner,
		"C":                   JoinCross,
		"straight":            JoinStraight,
		"l":                   JoinLeft,
		"right":               JoinRight,
		"n":                   JoinNatural,
		"natural-left":        JoinNaturalLeft,
		"nr":                  JoinNaturalRight,
		"lo":                  JoinLeftOuter,
		"right-outer":         JoinRightOuter,
		"nlo":                 JoinNaturalLeftOuter,
		"natural-right-outer": JoinNaturalRightOuter,
	}
	for code, want := range tests {
		got, err := ParseJoinType(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}

	_, err := ParseJoinType("sideways")
	assert.Error(t, err)
}

func TestJoinTypeNatural(t *testing.T) {
	assert.True(t, JoinNatural.Natural())
	assert.True(t, JoinNaturalRightOuter.Natural())
	assert.False(t, JoinLeft.Natural())
	assert.False(t, JoinCross.Natural())
}

func TestConnective(t *testing.T) {
	assert.Equal(t, "AND", ConnDefault.Keyword())
	assert.Equal(t, "AND", ConnAnd.Keyword())
	assert.Equal(t, "OR", ConnOr.Keyword())

	c, err := ParseConnective(" or ")
	require.NoError(t, err)
	assert.Equal(t, ConnOr, c)

	_, err = ParseConnective("xor")
	assert.Error(t, err)
}

func TestConditionHelpers(t *testing.T) {
	c := Eq("status", ir.String("active")).Or().Negate().Open("((").Close(")")

	assert.Equal(t, ConnOr, c.Connective)
	assert.True(t, c.Not)
	assert.Equal(t, "((", c.StartBrackets)
	assert.Equal(t, ")", c.EndBrackets)
	assert.Equal(t, Raw("status"), c.Left)
	assert.Equal(t, Literal{Value: ir.String("active")}, c.Right)
}

func TestRowLookup(t *testing.T) {
	row := Row{Set("name", ir.String("a")), Set("age", ir.Int(3))}

	assert.Equal(t, []string{"name", "age"}, row.Columns())
	v, ok := row.Lookup("age")
	assert.True(t, ok)
	assert.Equal(t, ir.Int(3), v)
	_, ok = row.Lookup("missing")
	assert.False(t, ok)
}

func TestPrimaryColumns(t *testing.T) {
	ct := &CreateTable{Columns: []ColumnDefinition{
		{Name: "a", IsPrimary: true},
		{Name: "b"},
		{Name: "c", IsPrimary: true},
	}}
	assert.Equal(t, []string{"a", "c"}, ct.PrimaryColumns())
}

func TestParseIndexKind(t *testing.T) {
	k, err := ParseIndexKind("unique-key")
	require.NoError(t, err)
	assert.Equal(t, IndexUniqueKey, k)
	assert.True(t, k.IsUnique())
	assert.True(t, k.IsConstraint())

	k, err = ParseIndexKind("FULLTEXT")
	require.NoError(t, err)
	assert.True(t, k.IsFulltext())
	assert.False(t, k.IsConstraint())

	k, err = ParseIndexKind("foreign-key")
	require.NoError(t, err)
	assert.Equal(t, IndexForeignKey, k)

	_, err = ParseIndexKind("bitmap")
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	tmp, err := ParseTemporary("global")
	require.NoError(t, err)
	assert.Equal(t, TempGlobal, tmp)

	req, err := ParseRequest("rename")
	require.NoError(t, err)
	assert.Equal(t, RequestRename, req)

	cr, err := ParseColumnRequest("modify")
	require.NoError(t, err)
	assert.Equal(t, ColumnModify, cr)

	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, DirDesc, d)

	_, err = ParseTemporary("forever")
	assert.Error(t, err)
}
