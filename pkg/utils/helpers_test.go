package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-system/pkg/constants"
)

func TestOrderNumberPrefix(t *testing.T) {
	cases := []struct {
		bank, prefix, want string
	}{
		{"Алиф Банк", "", "АЛ"},
		{"Eskhata", "es-1", "ES"},
		{"Банк", "  ", "БА"},
		{"A", "", "A"},
		{"", "", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, OrderNumberPrefix(c.bank, c.prefix), c.bank+"/"+c.prefix)
	}
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "АЛ00001", FormatOrderNumber("АЛ", 1))
	assert.Equal(t, "DB123456", FormatOrderNumber("DB", 123456))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2 MB", FormatFileSize(2*1024*1024))
}

func TestFileTypeFromMime(t *testing.T) {
	assert.Equal(t, constants.FileTypeImage, FileTypeFromMime("image/png"))
	assert.Equal(t, constants.FileTypePDF, FileTypeFromMime("application/pdf"))
	assert.Equal(t, constants.FileTypeSpreadsheet, FileTypeFromMime("text/csv"))
	assert.Equal(t, constants.FileTypeArchive, FileTypeFromMime("application/zip"))
	assert.Equal(t, constants.FileTypeDocument, FileTypeFromMime("application/octet-stream"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "Акт_01_09.xlsx", SanitizeFileName(` Акт/01:09.xlsx? `))
	assert.True(t, HasExtension("photo.JPG", "jpg", "png"))
	assert.False(t, HasExtension("photo.gif", "jpg", "png"))
}

func TestParseFlexibleDate(t *testing.T) {
	want := time.Date(2026, 10, 18, 14, 30, 0, 0, time.Local)
	for _, raw := range []string{"18.10.2026 14:30", "2026-10-18 14:30", "2026-10-18T14:30"} {
		got, err := ParseFlexibleDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), raw)
	}

	got, err := ParseFlexibleDate("45292.5")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local), got)

	for _, raw := range []string{"", "завтра", "-3"} {
		_, err := ParseFlexibleDate(raw)
		assert.Error(t, err, raw)
	}
}

func TestExcelSerialToTime(t *testing.T) {
	got, err := ExcelSerialToTime(25569)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.Local), got)

	_, err = ExcelSerialToTime(0)
	assert.Error(t, err)
	_, err = ExcelSerialToTime(3000000)
	assert.Error(t, err)
}

func TestDayBoundaries(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC), EndOfDay(now))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), StartOfWeek(now))

	from, to, err := ParseDayRange("2026-10-01", "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 0, from.Hour())
	assert.Equal(t, 23, to.Hour())
	_, _, err = ParseDayRange("2026-10-01", "18.10.2026")
	assert.Error(t, err)
}

func TestPasswordsAndKeys(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "secret123"))
	assert.Error(t, ComparePasswords(hash, "secret124"))

	key := GenerateAccessKey()
	assert.Len(t, key, 32)
	assert.NotEqual(t, key, GenerateAccessKey())
}
