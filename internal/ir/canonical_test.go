package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNFC(t *testing.T) {
	// "é" as e + combining acute accent (NFD) must become the precomposed form
	decomposed := "e\u0301"
	assert.Equal(t, "\u00e9", Normalize(decomposed))
	assert.Equal(t, "plain", Normalize("plain"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "2.5", FormatFloat(2.5))
	assert.Equal(t, "100", FormatFloat(100))
	assert.Equal(t, "0.000001", FormatFloat(0.000001))
	assert.Equal(t, "-3.25", FormatFloat(-3.25))
}

func TestFormatTimeUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 1, 14, 30, 0, 0, loc)
	assert.Equal(t, "2024-03-01 12:30:00", FormatTime(Time(ts)))

	withMicros := time.Date(2024, 3, 1, 12, 30, 0, 123456000, time.UTC)
	assert.Equal(t, "2024-03-01 12:30:00.123456", FormatTime(Time(withMicros)))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "NULL", Describe(Null{}))
	assert.Equal(t, `"a"`, Describe(String("a")))
	assert.Equal(t, "[1, \"x\"]", Describe(List{Int(1), String("x")}))
	assert.Equal(t, "NOW()", Describe(Func("NOW()")))
	assert.Equal(t, "<nil>", Describe(nil))
}
